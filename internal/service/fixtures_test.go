package service

import (
	"context"
	"sync"
	"testing"

	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Recording audit sink ─────────────────────────────────────────────────────

type auditEntry struct {
	accion  model.AccionLog
	entidad string
}

type recordingAuditoria struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *recordingAuditoria) Append(_ context.Context, accion model.AccionLog, entidad, _ string, _ uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{accion, entidad})
}

func (a *recordingAuditoria) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	auditoria *recordingAuditoria
	cajas     CajaService
	ventas    VentaService
	inv       InventarioService
	concil    ConciliacionService

	sucursal model.Sucursal
	cajero   model.Usuario
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	aud := &recordingAuditoria{}
	f := &fixture{
		store:     store,
		auditoria: aud,
		cajas:     NewCajaService(store, aud, nil),
		ventas:    NewVentaService(store, aud, false),
		inv:       NewInventarioService(store, aud),
		concil:    NewConciliacionService(store),
	}
	f.sucursal = store.PutSucursal(model.Sucursal{Nombre: "Sucursal Centro"})
	f.cajero = store.PutUsuario(model.Usuario{Username: "cajero1", Nombre: "Cajero", Rol: "cajero", Activo: true})
	return f
}

func (f *fixture) medicamento(t *testing.T, nombre string, stock int, precio string) model.Producto {
	t.Helper()
	return f.store.PutProducto(model.TipoMedicamento, model.ProductoBase{
		Nombre:      nombre,
		PrecioVenta: decimal.RequireFromString(precio),
		Stock:       stock,
		Activo:      true,
		SucursalID:  f.sucursal.ID,
	})
}

func (f *fixture) general(t *testing.T, nombre string, stock int, precio string) model.Producto {
	t.Helper()
	return f.store.PutProducto(model.TipoGeneral, model.ProductoBase{
		Nombre:      nombre,
		PrecioVenta: decimal.RequireFromString(precio),
		Stock:       stock,
		Activo:      true,
		SucursalID:  f.sucursal.ID,
	})
}

func (f *fixture) abrir(t *testing.T, monto string) *dto.CajaResponse {
	t.Helper()
	caja, err := f.cajas.Abrir(context.Background(), f.cajero.ID, dto.AbrirCajaRequest{
		SucursalID:   f.sucursal.ID.String(),
		MontoInicial: decimal.RequireFromString(monto),
	})
	require.NoError(t, err)
	return caja
}

func (f *fixture) stock(t *testing.T, p model.Producto) int {
	t.Helper()
	got, err := f.store.Repos().Productos.FindByID(context.Background(), p.Tipo, p.ID)
	require.NoError(t, err)
	return got.Stock
}

func (f *fixture) caja(t *testing.T, id string) *dto.CajaResponse {
	t.Helper()
	c, err := f.cajas.Obtener(context.Background(), uuid.MustParse(id))
	require.NoError(t, err)
	return c
}

func linea(p model.Producto, cantidad int, precio string) dto.LineaVentaRequest {
	return dto.LineaVentaRequest{
		ProductoID:     p.ID.String(),
		TipoProducto:   string(p.Tipo),
		Cantidad:       cantidad,
		PrecioUnitario: decimal.RequireFromString(precio),
	}
}

func (f *fixture) vender(t *testing.T, lineas ...dto.LineaVentaRequest) *dto.VentaResponse {
	t.Helper()
	v, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     lineas,
	})
	require.NoError(t, err)
	return v
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
