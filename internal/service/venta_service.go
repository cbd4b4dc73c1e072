package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type VentaService interface {
	Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	Anular(ctx context.Context, usuarioID, ventaID uuid.UUID, motivo string) (*dto.AnulacionResponse, error)
	Obtener(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error)
}

type ventaService struct {
	store               repository.Store
	auditoria           Auditoria
	precioDesdeCatalogo bool
}

// NewVentaService builds the sale service. With precioDesdeCatalogo the unit
// price of every line is taken from the product's current precio_venta and
// the request price is ignored.
func NewVentaService(store repository.Store, auditoria Auditoria, precioDesdeCatalogo bool) VentaService {
	return &ventaService{store: store, auditoria: auditoria, precioDesdeCatalogo: precioDesdeCatalogo}
}

// ── Registrar ─────────────────────────────────────────────────────────────────
// Single unit of work:
//   1. sucursal and usuario exist
//   2. lock the abierta caja of the sucursal
//   3. resolve lines, check stock for every product (aggregated per product)
//   4. insert venta + detalles
//   5. conditional stock decrement per product, movimientos_stock
//   6. add the total to the caja running totals
// Any error rolls back everything, including earlier decrements.

func (s *ventaService) Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sucursalID, err := uuid.Parse(req.SucursalID)
	if err != nil {
		return nil, apperror.InvalidArgument("sucursal_id inválido")
	}

	var venta *model.Venta
	err = s.store.Execute(ctx, func(r repository.Repos) error {
		if err := existeSucursalYUsuario(ctx, r, sucursalID, usuarioID); err != nil {
			return err
		}
		caja, err := r.Cajas.FindAbiertaBySucursalForUpdate(ctx, sucursalID)
		if apperror.Is(err, apperror.KindNotFound) {
			return apperror.Conflict("no hay una caja abierta en esta sucursal")
		}
		if err != nil {
			return err
		}
		if len(req.Lineas) == 0 {
			return apperror.InvalidArgument("la venta debe tener al menos una línea")
		}

		detalles, cantidades, orden, err := s.resolverLineas(ctx, r, req.Lineas)
		if err != nil {
			return err
		}
		l := ledger{r}
		for _, k := range orden {
			if _, err := l.verificar(ctx, k.tipo, k.id, cantidades[k]); err != nil {
				return err
			}
		}

		total := decimal.Zero
		for _, d := range detalles {
			total = total.Add(d.Subtotal)
		}
		ventaID := uuid.New()
		for i := range detalles {
			detalles[i].ID = uuid.New()
			detalles[i].VentaID = ventaID
		}
		venta = &model.Venta{
			ID:         ventaID,
			Fecha:      time.Now(),
			Total:      total,
			SucursalID: sucursalID,
			CajaID:     &caja.ID,
			UsuarioID:  usuarioID,
			Estado:     model.VentaCompletada,
			Detalles:   detalles,
		}
		if err := r.Ventas.Create(ctx, venta); err != nil {
			return err
		}

		for _, k := range ordenar(orden) {
			if err := l.descontar(ctx, k.tipo, k.id, cantidades[k], &ventaID, &usuarioID); err != nil {
				return err
			}
		}
		return aplicarDelta(ctx, r, caja.ID, total)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("caja_id", venta.CajaID.String()).
		Str("sucursal_id", sucursalID.String()).
		Str("total", venta.Total.StringFixed(2)).
		Int("lineas", len(venta.Detalles)).
		Msg("venta registrada")
	s.auditoria.Append(ctx, model.AccionVentas, "venta",
		fmt.Sprintf("Venta %s por %s con %d líneas", venta.ID, venta.Total.StringFixed(2), len(venta.Detalles)), usuarioID)
	return ventaToResponse(venta), nil
}

// resolverLineas validates the request lines and builds the detalles.
// cantidades aggregates quantities per product; orden lists every product
// once, in the order it first appears.
func (s *ventaService) resolverLineas(ctx context.Context, r repository.Repos, lineas []dto.LineaVentaRequest) ([]model.DetalleVenta, map[productoKey]int, []productoKey, error) {
	detalles := make([]model.DetalleVenta, 0, len(lineas))
	cantidades := make(map[productoKey]int, len(lineas))
	var orden []productoKey

	for i, ln := range lineas {
		id, err := uuid.Parse(ln.ProductoID)
		if err != nil {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("línea %d: producto_id inválido", i+1))
		}
		tipo := model.TipoProducto(ln.TipoProducto)
		if !tipo.Valid() {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("línea %d: tipo de producto inválido", i+1))
		}
		if ln.Cantidad <= 0 {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("línea %d: la cantidad debe ser mayor a cero", i+1))
		}

		p, err := r.Productos.FindByID(ctx, tipo, id)
		if err != nil {
			return nil, nil, nil, err
		}
		if !p.Activo {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("el producto %s está inactivo y no puede venderse", p.Nombre))
		}

		precio := ln.PrecioUnitario
		if s.precioDesdeCatalogo {
			precio = p.PrecioVenta
		}
		if !precio.IsPositive() {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("línea %d: el precio unitario debe ser mayor a cero", i+1))
		}
		if !precio.Equal(precio.Round(2)) {
			return nil, nil, nil, apperror.InvalidArgument(fmt.Sprintf("línea %d: el precio unitario admite a lo sumo 2 decimales", i+1))
		}

		k := productoKey{tipo: tipo, id: id}
		if _, seen := cantidades[k]; !seen {
			orden = append(orden, k)
		}
		cantidades[k] += ln.Cantidad

		detalles = append(detalles, model.DetalleVenta{
			ProductoID:     id,
			TipoProducto:   tipo,
			NombreProducto: p.Nombre,
			Cantidad:       ln.Cantidad,
			PrecioUnitario: precio,
			Subtotal:       precio.Mul(decimal.NewFromInt(int64(ln.Cantidad))).Round(2),
		})
	}
	return detalles, cantidades, orden, nil
}

// ── Anular ────────────────────────────────────────────────────────────────────
// Restores stock, subtracts the total from the caja and marks the venta
// anulada. Only ventas of an abierta caja can be voided.

func (s *ventaService) Anular(ctx context.Context, usuarioID, ventaID uuid.UUID, motivo string) (*dto.AnulacionResponse, error) {
	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		return nil, apperror.InvalidArgument("el motivo de anulación es obligatorio")
	}

	var venta *model.Venta
	anuladaAt := time.Now()
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		var err error
		venta, err = r.Ventas.FindByID(ctx, ventaID)
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaAnulada {
			return apperror.Conflict("la venta ya está anulada")
		}
		if venta.CajaID == nil {
			return apperror.Conflict("la venta no pertenece a una caja abierta")
		}
		caja, err := r.Cajas.FindByIDForUpdate(ctx, *venta.CajaID)
		if err != nil {
			return err
		}
		if !caja.Abierta() {
			return apperror.Conflict("no se puede anular una venta de una caja cerrada")
		}

		cantidades := make(map[productoKey]int, len(venta.Detalles))
		var orden []productoKey
		for _, d := range venta.Detalles {
			k := productoKey{tipo: d.TipoProducto, id: d.ProductoID}
			if _, seen := cantidades[k]; !seen {
				orden = append(orden, k)
			}
			cantidades[k] += d.Cantidad
		}
		l := ledger{r}
		for _, k := range ordenar(orden) {
			if err := l.reponer(ctx, k.tipo, k.id, cantidades[k], &venta.ID, &usuarioID); err != nil {
				return err
			}
		}
		if err := aplicarDelta(ctx, r, caja.ID, venta.Total.Neg()); err != nil {
			return err
		}
		return r.Ventas.Anular(ctx, venta.ID, motivo, anuladaAt)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("caja_id", venta.CajaID.String()).
		Str("total", venta.Total.StringFixed(2)).
		Str("motivo", motivo).
		Msg("venta anulada")
	s.auditoria.Append(ctx, model.AccionVentas, "venta",
		fmt.Sprintf("Venta %s anulada: %s", venta.ID, motivo), usuarioID)
	return &dto.AnulacionResponse{
		VentaID:   venta.ID.String(),
		Motivo:    motivo,
		AnuladaAt: anuladaAt.Format(timeLayout),
	}, nil
}

func (s *ventaService) Obtener(ctx context.Context, ventaID uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.store.Repos().Ventas.FindByID(ctx, ventaID)
	if err != nil {
		return nil, err
	}
	return ventaToResponse(v), nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:              v.ID.String(),
		Fecha:           v.Fecha.Format(timeLayout),
		Total:           v.Total,
		SucursalID:      v.SucursalID.String(),
		UsuarioID:       v.UsuarioID.String(),
		Estado:          string(v.Estado),
		MotivoAnulacion: v.MotivoAnulacion,
		Lineas:          make([]dto.LineaVentaResponse, 0, len(v.Detalles)),
	}
	if v.CajaID != nil {
		id := v.CajaID.String()
		resp.CajaID = &id
	}
	for _, d := range v.Detalles {
		resp.Lineas = append(resp.Lineas, dto.LineaVentaResponse{
			ID:             d.ID.String(),
			ProductoID:     d.ProductoID.String(),
			TipoProducto:   string(d.TipoProducto),
			NombreProducto: d.NombreProducto,
			Cantidad:       d.Cantidad,
			PrecioUnitario: d.PrecioUnitario,
			Subtotal:       d.Subtotal,
		})
	}
	return resp
}
