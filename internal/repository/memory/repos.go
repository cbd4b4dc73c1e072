package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Sucursales / Usuarios ────────────────────────────────────────────────────

type sucursalRepo struct{ base }

func (r sucursalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sucursal, error) {
	defer r.lock()()
	s, ok := r.state().sucursales[id]
	if !ok {
		return nil, apperror.NotFound("sucursal", id)
	}
	return &s, nil
}

func (r sucursalRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	defer r.lock()()
	_, ok := r.state().sucursales[id]
	return ok, nil
}

type usuarioRepo struct{ base }

func (r usuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	defer r.lock()()
	u, ok := r.state().usuarios[id]
	if !ok {
		return nil, apperror.NotFound("usuario", id)
	}
	return &u, nil
}

func (r usuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	defer r.lock()()
	for _, u := range r.state().usuarios {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, apperror.NotFound("usuario", username)
}

func (r usuarioRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	defer r.lock()()
	u, ok := r.state().usuarios[id]
	return ok && u.Activo, nil
}

// ── Productos ────────────────────────────────────────────────────────────────

type productoRepo struct{ base }

func validTipo(tipo model.TipoProducto) error {
	if !tipo.Valid() {
		return apperror.InvalidArgument(fmt.Sprintf("tipo de producto desconocido: %q", tipo))
	}
	return nil
}

func (r productoRepo) FindByID(_ context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error) {
	if err := validTipo(tipo); err != nil {
		return nil, err
	}
	defer r.lock()()
	p, ok := r.state().productos[productoKey{tipo, id}]
	if !ok {
		return nil, apperror.NotFound("producto", id)
	}
	return &model.Producto{ProductoBase: p, Tipo: tipo}, nil
}

func (r productoRepo) FindByIDForUpdate(ctx context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(ctx, tipo, id)
}

func (r productoRepo) DecrementStock(_ context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error) {
	if err := validTipo(tipo); err != nil {
		return 0, err
	}
	defer r.lock()()
	k := productoKey{tipo, id}
	p, ok := r.state().productos[k]
	if !ok {
		return 0, apperror.NotFound("producto", id)
	}
	if p.Stock < cantidad {
		return 0, apperror.InsufficientStock(id, string(tipo), p.Nombre, p.Stock, cantidad)
	}
	p.Stock -= cantidad
	p.UpdatedAt = time.Now()
	r.state().productos[k] = p
	return p.Stock, nil
}

func (r productoRepo) IncrementStock(_ context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error) {
	if err := validTipo(tipo); err != nil {
		return 0, err
	}
	defer r.lock()()
	k := productoKey{tipo, id}
	p, ok := r.state().productos[k]
	if !ok {
		return 0, apperror.NotFound("producto", id)
	}
	p.Stock += cantidad
	p.UpdatedAt = time.Now()
	r.state().productos[k] = p
	return p.Stock, nil
}

func (r productoRepo) UpdateStockYCosto(_ context.Context, tipo model.TipoProducto, id uuid.UUID, stock int, costo decimal.Decimal) error {
	if err := validTipo(tipo); err != nil {
		return err
	}
	defer r.lock()()
	k := productoKey{tipo, id}
	p, ok := r.state().productos[k]
	if !ok {
		return apperror.NotFound("producto", id)
	}
	p.Stock = stock
	p.PrecioCompra = costo
	p.UpdatedAt = time.Now()
	r.state().productos[k] = p
	return nil
}

func (r productoRepo) ListStockBajo(_ context.Context, umbral int) ([]model.Producto, error) {
	defer r.lock()()
	out := r.filter(func(p model.ProductoBase) bool { return p.Activo && p.Stock <= umbral })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (r productoRepo) ListPorVencer(_ context.Context, hasta time.Time) ([]model.Producto, error) {
	defer r.lock()()
	out := r.filter(func(p model.ProductoBase) bool {
		return p.Activo && p.FechaVencimiento != nil && !p.FechaVencimiento.After(hasta)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].FechaVencimiento.Before(*out[j].FechaVencimiento) })
	return out, nil
}

func (r productoRepo) filter(keep func(model.ProductoBase) bool) []model.Producto {
	var out []model.Producto
	for k, p := range r.state().productos {
		if keep(p) {
			out = append(out, model.Producto{ProductoBase: p, Tipo: k.tipo})
		}
	}
	return out
}

// ── Cajas ────────────────────────────────────────────────────────────────────

type cajaRepo struct{ base }

func (r cajaRepo) Create(_ context.Context, c *model.Caja) error {
	defer r.lock()()
	for _, existing := range r.state().cajas {
		if existing.SucursalID == c.SucursalID && existing.Estado == model.CajaAbierta {
			return apperror.Conflict("ya existe una caja abierta en esta sucursal")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.state().cajas[c.ID] = *c
	return nil
}

func (r cajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	defer r.lock()()
	c, ok := r.state().cajas[id]
	if !ok {
		return nil, apperror.NotFound("caja", id)
	}
	return &c, nil
}

func (r cajaRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	return r.FindByID(ctx, id)
}

func (r cajaRepo) FindAbiertaBySucursal(_ context.Context, sucursalID uuid.UUID) (*model.Caja, error) {
	defer r.lock()()
	for _, c := range r.state().cajas {
		if c.SucursalID == sucursalID && c.Estado == model.CajaAbierta {
			return &c, nil
		}
	}
	return nil, apperror.NotFound("caja abierta de la sucursal", sucursalID)
}

func (r cajaRepo) FindAbiertaBySucursalForUpdate(ctx context.Context, sucursalID uuid.UUID) (*model.Caja, error) {
	return r.FindAbiertaBySucursal(ctx, sucursalID)
}

func (r cajaRepo) ListBySucursal(_ context.Context, sucursalID uuid.UUID) ([]model.Caja, error) {
	defer r.lock()()
	var out []model.Caja
	for _, c := range r.state().cajas {
		if c.SucursalID == sucursalID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaApertura.After(out[j].FechaApertura) })
	return out, nil
}

func (r cajaRepo) ApplyDelta(_ context.Context, id uuid.UUID, monto decimal.Decimal) error {
	defer r.lock()()
	c, ok := r.state().cajas[id]
	if !ok {
		return apperror.NotFound("caja", id)
	}
	if c.Estado != model.CajaAbierta {
		return apperror.Conflict("la caja está cerrada")
	}
	c.VentasTotales = c.VentasTotales.Add(monto)
	c.MontoEsperado = c.MontoInicial.Add(c.VentasTotales)
	c.Version++
	c.UpdatedAt = time.Now()
	r.state().cajas[id] = c
	return nil
}

func (r cajaRepo) Update(_ context.Context, c *model.Caja) error {
	defer r.lock()()
	current, ok := r.state().cajas[c.ID]
	if !ok {
		return apperror.NotFound("caja", c.ID)
	}
	if current.Version != c.Version {
		return apperror.Conflict("la caja fue modificada por otra operación")
	}
	c.Version++
	c.UpdatedAt = time.Now()
	r.state().cajas[c.ID] = *c
	return nil
}

func (r cajaRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.lock()()
	if _, ok := r.state().cajas[id]; !ok {
		return apperror.NotFound("caja", id)
	}
	delete(r.state().cajas, id)
	// ventas.caja_id ON DELETE SET NULL
	for vid, v := range r.state().ventas {
		if v.CajaID != nil && *v.CajaID == id {
			v.CajaID = nil
			r.state().ventas[vid] = v
		}
	}
	return nil
}

// ── Ventas ───────────────────────────────────────────────────────────────────

type ventaRepo struct{ base }

func (r ventaRepo) Create(_ context.Context, v *model.Venta) error {
	defer r.lock()()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	for i := range v.Detalles {
		if v.Detalles[i].ID == uuid.Nil {
			v.Detalles[i].ID = uuid.New()
		}
		v.Detalles[i].VentaID = v.ID
	}
	v.CreatedAt = time.Now()
	stored := *v
	stored.Detalles = append([]model.DetalleVenta(nil), v.Detalles...)
	r.state().ventas[v.ID] = stored
	return nil
}

func (r ventaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	defer r.lock()()
	v, ok := r.state().ventas[id]
	if !ok {
		return nil, apperror.NotFound("venta", id)
	}
	v.Detalles = append([]model.DetalleVenta(nil), v.Detalles...)
	return &v, nil
}

func (r ventaRepo) completadas(cajaID uuid.UUID) []model.Venta {
	var out []model.Venta
	for _, v := range r.state().ventas {
		if v.CajaID != nil && *v.CajaID == cajaID && v.Estado == model.VentaCompletada {
			v.Detalles = append([]model.DetalleVenta(nil), v.Detalles...)
			out = append(out, v)
		}
	}
	return out
}

func (r ventaRepo) ListByCaja(_ context.Context, cajaID uuid.UUID) ([]model.Venta, error) {
	defer r.lock()()
	out := r.completadas(cajaID)
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.After(out[j].Fecha) })
	return out, nil
}

func (r ventaRepo) SumTotalByCaja(_ context.Context, cajaID uuid.UUID) (decimal.Decimal, error) {
	defer r.lock()()
	total := decimal.Zero
	for _, v := range r.completadas(cajaID) {
		total = total.Add(v.Total)
	}
	return total, nil
}

func (r ventaRepo) CountByCaja(_ context.Context, cajaID uuid.UUID) (int64, error) {
	defer r.lock()()
	return int64(len(r.completadas(cajaID))), nil
}

func (r ventaRepo) Anular(_ context.Context, id uuid.UUID, motivo string, at time.Time) error {
	defer r.lock()()
	v, ok := r.state().ventas[id]
	if !ok {
		return apperror.NotFound("venta", id)
	}
	if v.Estado != model.VentaCompletada {
		return apperror.Conflict("la venta ya está anulada")
	}
	v.Estado = model.VentaAnulada
	v.MotivoAnulacion = &motivo
	v.AnuladaAt = &at
	r.state().ventas[id] = v
	return nil
}

// ── Movimientos, logs, notificaciones ────────────────────────────────────────

type movimientoStockRepo struct{ base }

func (r movimientoStockRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	defer r.lock()()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.state().movimientos = append(r.state().movimientos, *m)
	return nil
}

func (r movimientoStockRepo) ListByProducto(_ context.Context, tipo model.TipoProducto, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	defer r.lock()()
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var out []model.MovimientoStock
	movs := r.state().movimientos
	for i := len(movs) - 1; i >= 0 && len(out) < limit; i-- {
		if movs[i].ProductoID == productoID && movs[i].TipoProducto == tipo {
			out = append(out, movs[i])
		}
	}
	return out, nil
}

type logRepo struct{ base }

func (r logRepo) Create(_ context.Context, l *model.LogAuditoria) error {
	defer r.lock()()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.state().logs = append(r.state().logs, *l)
	return nil
}

type notificacionRepo struct{ base }

func (r notificacionRepo) Create(_ context.Context, n *model.Notificacion) error {
	defer r.lock()()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	r.state().notificaciones = append(r.state().notificaciones, *n)
	return nil
}

func (r notificacionRepo) ExisteActiva(_ context.Context, tipo string, productoID uuid.UUID) (bool, error) {
	defer r.lock()()
	for _, n := range r.state().notificaciones {
		if n.Tipo == tipo && n.ProductoID == productoID && n.Activa {
			return true, nil
		}
	}
	return false, nil
}

func (r notificacionRepo) ListActivas(_ context.Context, tipo string) ([]model.Notificacion, error) {
	defer r.lock()()
	var out []model.Notificacion
	for _, n := range r.state().notificaciones {
		if n.Tipo == tipo && n.Activa {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r notificacionRepo) Desactivar(_ context.Context, ids []uuid.UUID) error {
	defer r.lock()()
	quitar := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		quitar[id] = true
	}
	notifs := r.state().notificaciones
	for i := range notifs {
		if quitar[notifs[i].ID] {
			notifs[i].Activa = false
		}
	}
	return nil
}

func (r notificacionRepo) MarcarLeida(_ context.Context, id uuid.UUID) error {
	defer r.lock()()
	notifs := r.state().notificaciones
	for i := range notifs {
		if notifs[i].ID == id {
			notifs[i].Leida = true
			return nil
		}
	}
	return apperror.NotFound("notificación", id)
}
