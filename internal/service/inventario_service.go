package service

import (
	"context"
	"fmt"
	"sort"

	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// InventarioService is the HTTP-facing side of the stock ledger. Sales and
// cancellations use the ledger directly inside their own unit of work.
type InventarioService interface {
	// VerificarDisponibilidad returns InsufficientStock when cantidad exceeds
	// the current stock; the response is filled in either case.
	VerificarDisponibilidad(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, cantidad int) (*dto.DisponibilidadResponse, error)
	RegistrarEntrada(ctx context.Context, usuarioID uuid.UUID, req dto.EntradaInventarioRequest) (*dto.EntradaInventarioResponse, error)
	Movimientos(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error)
}

type inventarioService struct {
	store     repository.Store
	auditoria Auditoria
}

func NewInventarioService(store repository.Store, auditoria Auditoria) InventarioService {
	return &inventarioService{store: store, auditoria: auditoria}
}

func (s *inventarioService) VerificarDisponibilidad(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, cantidad int) (*dto.DisponibilidadResponse, error) {
	if cantidad <= 0 {
		return nil, apperror.InvalidArgument("la cantidad debe ser mayor a cero")
	}
	p, err := ledger{s.store.Repos()}.verificar(ctx, tipo, productoID, cantidad)
	if p == nil {
		return nil, err
	}
	return &dto.DisponibilidadResponse{
		ProductoID:   productoID.String(),
		TipoProducto: string(tipo),
		Disponible:   p.Stock,
		Solicitado:   cantidad,
		Suficiente:   err == nil,
	}, err
}

// ── RegistrarEntrada ─────────────────────────────────────────────────────────

func (s *inventarioService) RegistrarEntrada(ctx context.Context, usuarioID uuid.UUID, req dto.EntradaInventarioRequest) (*dto.EntradaInventarioResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apperror.InvalidArgument("producto_id inválido")
	}
	tipo := model.TipoProducto(req.TipoProducto)
	if req.Cantidad <= 0 {
		return nil, apperror.InvalidArgument("la cantidad debe ser mayor a cero")
	}
	if req.CostoUnitario.IsNegative() {
		return nil, apperror.InvalidArgument("el costo unitario no puede ser negativo")
	}
	motivo := "entrada de inventario"
	if req.Motivo != nil && *req.Motivo != "" {
		motivo = *req.Motivo
	}

	var resp *dto.EntradaInventarioResponse
	err = s.store.Execute(ctx, func(r repository.Repos) error {
		resp, err = ledger{r}.registrarEntrada(ctx, tipo, productoID, req.Cantidad, req.CostoUnitario, motivo, &usuarioID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("producto_id", productoID.String()).
		Str("tipo", string(tipo)).
		Int("stock", resp.StockNuevo).
		Str("costo", resp.CostoNuevo.String()).
		Msg("inventario: entrada registrada")
	s.auditoria.Append(ctx, model.AccionActualStock, "producto",
		fmt.Sprintf("Entrada de %d unidades de %s %s", req.Cantidad, tipo, productoID), usuarioID)
	return resp, nil
}

func (s *inventarioService) Movimientos(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, limit int) ([]dto.MovimientoStockResponse, error) {
	if !tipo.Valid() {
		return nil, apperror.InvalidArgument("tipo de producto inválido")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	r := s.store.Repos()
	if _, err := r.Productos.FindByID(ctx, tipo, productoID); err != nil {
		return nil, err
	}
	movs, err := r.MovimientosStock.ListByProducto(ctx, tipo, productoID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		item := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format(timeLayout),
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			item.ReferenciaID = &ref
		}
		out = append(out, item)
	}
	return out, nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────
// Stock operations bound to one Repos. Every change writes a MovimientoStock
// through the same Repos, so it commits or rolls back with the caller.

type ledger struct {
	r repository.Repos
}

// productoKey identifies a product across both catalogs.
type productoKey struct {
	tipo model.TipoProducto
	id   uuid.UUID
}

// verificar returns the product together with an InsufficientStock error
// when cantidad exceeds its stock.
func (l ledger) verificar(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (*model.Producto, error) {
	if !tipo.Valid() {
		return nil, apperror.InvalidArgument(fmt.Sprintf("tipo de producto inválido: %q", tipo))
	}
	p, err := l.r.Productos.FindByID(ctx, tipo, id)
	if err != nil {
		return nil, err
	}
	if cantidad > p.Stock {
		return p, apperror.InsufficientStock(p.ID, string(tipo), p.Nombre, p.Stock, cantidad)
	}
	return p, nil
}

func (l ledger) descontar(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int, ventaID, usuarioID *uuid.UUID) error {
	nuevo, err := l.r.Productos.DecrementStock(ctx, tipo, id, cantidad)
	if err != nil {
		return err
	}
	return l.r.MovimientosStock.Create(ctx, &model.MovimientoStock{
		ProductoID:    id,
		TipoProducto:  tipo,
		Tipo:          model.MovimientoVenta,
		Cantidad:      -cantidad,
		StockAnterior: nuevo + cantidad,
		StockNuevo:    nuevo,
		Motivo:        "venta",
		ReferenciaID:  ventaID,
		UsuarioID:     usuarioID,
	})
}

func (l ledger) reponer(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int, ventaID, usuarioID *uuid.UUID) error {
	nuevo, err := l.r.Productos.IncrementStock(ctx, tipo, id, cantidad)
	if err != nil {
		return err
	}
	return l.r.MovimientosStock.Create(ctx, &model.MovimientoStock{
		ProductoID:    id,
		TipoProducto:  tipo,
		Tipo:          model.MovimientoAnulacion,
		Cantidad:      cantidad,
		StockAnterior: nuevo - cantidad,
		StockNuevo:    nuevo,
		Motivo:        "anulación de venta",
		ReferenciaID:  ventaID,
		UsuarioID:     usuarioID,
	})
}

func (l ledger) registrarEntrada(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int, costo decimal.Decimal, motivo string, usuarioID *uuid.UUID) (*dto.EntradaInventarioResponse, error) {
	if !tipo.Valid() {
		return nil, apperror.InvalidArgument(fmt.Sprintf("tipo de producto inválido: %q", tipo))
	}
	p, err := l.r.Productos.FindByIDForUpdate(ctx, tipo, id)
	if err != nil {
		return nil, err
	}
	nuevoStock := p.Stock + cantidad
	nuevoCosto := CostoPromedioPonderado(p.PrecioCompra, p.Stock, cantidad, costo)
	if err := l.r.Productos.UpdateStockYCosto(ctx, tipo, id, nuevoStock, nuevoCosto); err != nil {
		return nil, err
	}
	err = l.r.MovimientosStock.Create(ctx, &model.MovimientoStock{
		ProductoID:    id,
		TipoProducto:  tipo,
		Tipo:          model.MovimientoEntrada,
		Cantidad:      cantidad,
		StockAnterior: p.Stock,
		StockNuevo:    nuevoStock,
		Motivo:        motivo,
		UsuarioID:     usuarioID,
	})
	if err != nil {
		return nil, err
	}
	return &dto.EntradaInventarioResponse{
		ProductoID:    id.String(),
		TipoProducto:  string(tipo),
		StockAnterior: p.Stock,
		StockNuevo:    nuevoStock,
		CostoAnterior: p.PrecioCompra,
		CostoNuevo:    nuevoCosto,
	}, nil
}

// CostoPromedioPonderado recomputes the purchase cost after an entry of
// cantidad units at costoEntrada, where stockAnterior is the stock before the
// entry lands:
//
//	(costoActual × (stockAnterior − cantidad) + costoEntrada × cantidad) / stockAnterior
//
// The divisor does not include cantidad. The result is rounded to the 4
// decimals of the precio_compra column. A non-positive stockAnterior yields
// costoEntrada, and a negative result is floored at zero.
func CostoPromedioPonderado(costoActual decimal.Decimal, stockAnterior, cantidad int, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockAnterior <= 0 {
		return costoEntrada.Round(4)
	}
	resto := decimal.NewFromInt(int64(stockAnterior - cantidad))
	total := costoActual.Mul(resto).Add(costoEntrada.Mul(decimal.NewFromInt(int64(cantidad))))
	costo := total.Div(decimal.NewFromInt(int64(stockAnterior))).Round(4)
	if costo.IsNegative() {
		return decimal.Zero
	}
	return costo
}

// ordenar returns the keys sorted by (tipo, id), the order in which rows are
// locked so concurrent sales never wait on each other in a cycle.
func ordenar(keys []productoKey) []productoKey {
	out := append([]productoKey(nil), keys...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].tipo != out[j].tipo {
			return out[i].tipo < out[j].tipo
		}
		return out[i].id.String() < out[j].id.String()
	})
	return out
}
