package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrar_ComputesTotalAndDecrements(t *testing.T) {
	f := newFixture(t)
	ibu := f.medicamento(t, "Ibuprofeno", 10, "25.00")
	gel := f.general(t, "Alcohol en gel", 5, "3.50")
	caja := f.abrir(t, "100")

	venta, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(ibu, 2, "25.00"), linea(gel, 3, "3.50")},
		Total:      ptrDec("1.00"), // ignored
	})
	require.NoError(t, err)

	assert.True(t, venta.Total.Equal(dec("60.50")))
	require.Len(t, venta.Lineas, 2)
	assert.True(t, venta.Lineas[1].Subtotal.Equal(dec("10.50")))
	assert.Equal(t, "Ibuprofeno", venta.Lineas[0].NombreProducto)
	require.NotNil(t, venta.CajaID)
	assert.Equal(t, caja.ID, *venta.CajaID)

	assert.Equal(t, 8, f.stock(t, ibu))
	assert.Equal(t, 2, f.stock(t, gel))

	c := f.caja(t, caja.ID)
	assert.True(t, c.VentasTotales.Equal(dec("60.50")))
	assert.True(t, c.MontoEsperado.Equal(dec("160.50")))

	movs := f.store.Movimientos()
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, model.MovimientoVenta, m.Tipo)
		assert.Equal(t, venta.ID, m.ReferenciaID.String())
	}
}

func TestRegistrar_InsufficientStockHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ibu := f.medicamento(t, "Ibuprofeno", 3, "10")
	caja := f.abrir(t, "100")

	_, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(ibu, 10, "10")},
	})

	require.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	detail, ok := apperror.Stock(err)
	require.True(t, ok)
	assert.Equal(t, 3, detail.Disponible)
	assert.Equal(t, 10, detail.Solicitado)
	assert.Equal(t, ibu.ID, detail.ProductoID)

	assert.Equal(t, 3, f.stock(t, ibu))
	c := f.caja(t, caja.ID)
	assert.True(t, c.VentasTotales.IsZero())
	assert.True(t, c.MontoEsperado.Equal(dec("100")))
	assert.Empty(t, f.store.Movimientos())
	assert.Equal(t, 1, f.auditoria.count()) // apertura only
}

func TestRegistrar_AggregatesRepeatedProduct(t *testing.T) {
	f := newFixture(t)
	ibu := f.medicamento(t, "Ibuprofeno", 5, "10")
	f.abrir(t, "0")

	_, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(ibu, 3, "10"), linea(ibu, 3, "10")},
	})

	detail, ok := apperror.Stock(err)
	require.True(t, ok)
	assert.Equal(t, 5, detail.Disponible)
	assert.Equal(t, 6, detail.Solicitado)
	assert.Equal(t, 5, f.stock(t, ibu))
}

func TestRegistrar_SameIDDifferentTipoAreDistinctProducts(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	med := f.store.PutProducto(model.TipoMedicamento, model.ProductoBase{ID: id, Nombre: "Med", PrecioVenta: dec("1"), Stock: 1, Activo: true})
	gen := f.store.PutProducto(model.TipoGeneral, model.ProductoBase{ID: id, Nombre: "Gen", PrecioVenta: dec("1"), Stock: 1, Activo: true})
	f.abrir(t, "0")

	f.vender(t, linea(med, 1, "1"), linea(gen, 1, "1"))

	assert.Equal(t, 0, f.stock(t, med))
	assert.Equal(t, 0, f.stock(t, gen))
}

func TestRegistrar_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ibu := f.medicamento(t, "Ibuprofeno", 5, "10")

	// No caja abierta
	_, err := f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String(), Lineas: []dto.LineaVentaRequest{linea(ibu, 1, "10")}})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	// Unknown sucursal beats no caja
	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: uuid.NewString()})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	// Unknown usuario
	_, err = f.ventas.Registrar(ctx, uuid.New(), dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String()})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	f.abrir(t, "0")

	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String()})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String(), Lineas: []dto.LineaVentaRequest{linea(ibu, 0, "10")}})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String(), Lineas: []dto.LineaVentaRequest{linea(ibu, 1, "0")}})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	bad := linea(ibu, 1, "10")
	bad.TipoProducto = "cosmetic"
	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String(), Lineas: []dto.LineaVentaRequest{bad}})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	missing := linea(ibu, 1, "10")
	missing.ProductoID = uuid.NewString()
	_, err = f.ventas.Registrar(ctx, f.cajero.ID, dto.RegistrarVentaRequest{SucursalID: f.sucursal.ID.String(), Lineas: []dto.LineaVentaRequest{missing}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	assert.Equal(t, 5, f.stock(t, ibu))
}

func TestRegistrar_PricesBeyondCentsRejected(t *testing.T) {
	f := newFixture(t)
	ibu := f.medicamento(t, "Ibuprofeno", 10, "25")
	caja := f.abrir(t, "0")

	for _, precio := range []string{"0.004", "25.005", "-1"} {
		t.Run(precio, func(t *testing.T) {
			_, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
				SucursalID: f.sucursal.ID.String(),
				Lineas:     []dto.LineaVentaRequest{linea(ibu, 3, precio)},
			})
			assert.True(t, apperror.Is(err, apperror.KindInvalidArgument), "precio %s: %v", precio, err)
		})
	}

	assert.Equal(t, 10, f.stock(t, ibu))
	assert.True(t, f.caja(t, caja.ID).VentasTotales.IsZero())
	assert.Empty(t, f.store.Movimientos())

	resp, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(ibu, 3, "25.10")},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("75.3")), "got %s", resp.Total)
}

func TestRegistrar_InactiveProductRejected(t *testing.T) {
	f := newFixture(t)
	p := f.store.PutProducto(model.TipoGeneral, model.ProductoBase{Nombre: "Viejo", PrecioVenta: dec("1"), Stock: 5, Activo: false})
	f.abrir(t, "0")

	_, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(p, 1, "1")},
	})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestRegistrar_CatalogPrices(t *testing.T) {
	f := newFixture(t)
	f.ventas = NewVentaService(f.store, f.auditoria, true)
	ibu := f.medicamento(t, "Ibuprofeno", 5, "12.40")
	f.abrir(t, "0")

	venta := f.vender(t, linea(ibu, 2, "0.01"))

	assert.True(t, venta.Lineas[0].PrecioUnitario.Equal(dec("12.40")))
	assert.True(t, venta.Total.Equal(dec("24.80")))
}

// failingProductos wraps a ProductoRepository and fails DecrementStock for one product.
type failingProductos struct {
	repository.ProductoRepository
	failID uuid.UUID
}

func (p failingProductos) DecrementStock(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error) {
	if id == p.failID {
		return 0, errors.New("disk full")
	}
	return p.ProductoRepository.DecrementStock(ctx, tipo, id, cantidad)
}

type failingStore struct {
	repository.Store
	failID uuid.UUID
}

func (s failingStore) Execute(ctx context.Context, fn func(r repository.Repos) error) error {
	return s.Store.Execute(ctx, func(r repository.Repos) error {
		r.Productos = failingProductos{ProductoRepository: r.Productos, failID: s.failID}
		return fn(r)
	})
}

func TestRegistrar_DecrementFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	a := f.medicamento(t, "A", 10, "1")
	b := f.medicamento(t, "B", 10, "1")
	caja := f.abrir(t, "0")

	// Decrements run in (tipo, id) order; fail whichever comes last
	last := a
	if b.ID.String() > a.ID.String() {
		last = b
	}
	svc := NewVentaService(failingStore{Store: f.store, failID: last.ID}, f.auditoria, false)

	_, err := svc.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
		SucursalID: f.sucursal.ID.String(),
		Lineas:     []dto.LineaVentaRequest{linea(a, 2, "1"), linea(b, 2, "1")},
	})
	require.Error(t, err)

	assert.Equal(t, 10, f.stock(t, a))
	assert.Equal(t, 10, f.stock(t, b))
	assert.Empty(t, f.store.Movimientos())
	ventas, err := f.cajas.Ventas(context.Background(), uuid.MustParse(caja.ID))
	require.NoError(t, err)
	assert.Zero(t, ventas.Cantidad)
	assert.True(t, f.caja(t, caja.ID).VentasTotales.IsZero())
}

func TestRegistrar_ConcurrentPostingNeverOversellsOrLosesUpdates(t *testing.T) {
	f := newFixture(t)
	ibu := f.medicamento(t, "Ibuprofeno", 30, "5")
	caja := f.abrir(t, "100")

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ventas.Registrar(context.Background(), f.cajero.ID, dto.RegistrarVentaRequest{
				SucursalID: f.sucursal.ID.String(),
				Lineas:     []dto.LineaVentaRequest{linea(ibu, 1, "5")},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperror.Is(err, apperror.KindInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, ok)
	assert.Equal(t, 20, rejected)
	assert.Equal(t, 0, f.stock(t, ibu))

	c := f.caja(t, caja.ID)
	assert.True(t, c.VentasTotales.Equal(dec("150")))
	assert.True(t, c.MontoEsperado.Equal(c.MontoInicial.Add(c.VentasTotales)))
}

// ── Anular ────────────────────────────────────────────────────────────────────

func TestAnular_RoundTripRestoresStockAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ibu := f.medicamento(t, "Ibuprofeno", 10, "25")
	gel := f.general(t, "Gel", 4, "2")
	caja := f.abrir(t, "100")
	f.vender(t, linea(gel, 1, "2"))
	antes := f.caja(t, caja.ID)

	venta := f.vender(t, linea(ibu, 2, "25"), linea(gel, 3, "2"))
	resp, err := f.ventas.Anular(ctx, f.cajero.ID, uuid.MustParse(venta.ID), "cliente devolvió")
	require.NoError(t, err)
	assert.Equal(t, "cliente devolvió", resp.Motivo)
	assert.NotEmpty(t, resp.AnuladaAt)

	assert.Equal(t, 10, f.stock(t, ibu))
	assert.Equal(t, 3, f.stock(t, gel))
	despues := f.caja(t, caja.ID)
	assert.True(t, antes.VentasTotales.Equal(despues.VentasTotales))
	assert.True(t, antes.MontoEsperado.Equal(despues.MontoEsperado))

	v, err := f.ventas.Obtener(ctx, uuid.MustParse(venta.ID))
	require.NoError(t, err)
	assert.Equal(t, string(model.VentaAnulada), v.Estado)

	var restores int
	for _, m := range f.store.Movimientos() {
		if m.Tipo == model.MovimientoAnulacion {
			restores++
		}
	}
	assert.Equal(t, 2, restores)
}

func TestAnular_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ibu := f.medicamento(t, "Ibuprofeno", 10, "10")
	f.abrir(t, "0")
	venta := f.vender(t, linea(ibu, 1, "10"))
	id := uuid.MustParse(venta.ID)

	_, err := f.ventas.Anular(ctx, f.cajero.ID, uuid.New(), "x motivo")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.ventas.Anular(ctx, f.cajero.ID, id, "   ")
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = f.ventas.Anular(ctx, f.cajero.ID, id, "primera")
	require.NoError(t, err)
	_, err = f.ventas.Anular(ctx, f.cajero.ID, id, "segunda")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, 10, f.stock(t, ibu))
}

func TestAnular_ClosedRegisterRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ibu := f.medicamento(t, "Ibuprofeno", 10, "10")
	caja := f.abrir(t, "0")
	venta := f.vender(t, linea(ibu, 1, "10"))
	_, err := f.cajas.Cerrar(ctx, f.cajero.ID, uuid.MustParse(caja.ID), dto.CerrarCajaRequest{MontoFinal: dec("10")})
	require.NoError(t, err)

	_, err = f.ventas.Anular(ctx, f.cajero.ID, uuid.MustParse(venta.ID), "tarde")
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.Equal(t, 9, f.stock(t, ibu))
	cerrada := f.caja(t, caja.ID)
	assert.True(t, cerrada.VentasTotales.Equal(dec("10")))
}

func TestBalance_AcrossPostsAndCancels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ibu := f.medicamento(t, "Ibuprofeno", 100, "3.33")
	caja := f.abrir(t, "57.10")

	var ids []string
	for i := 1; i <= 6; i++ {
		v := f.vender(t, linea(ibu, i, "3.33"))
		ids = append(ids, v.ID)
	}
	for _, id := range []string{ids[1], ids[4]} {
		_, err := f.ventas.Anular(ctx, f.cajero.ID, uuid.MustParse(id), "corrección")
		require.NoError(t, err)
	}

	c := f.caja(t, caja.ID)
	assert.True(t, c.MontoEsperado.Equal(c.MontoInicial.Add(c.VentasTotales)))

	recomputed, err := f.concil.RecalcularVentas(ctx, uuid.MustParse(caja.ID))
	require.NoError(t, err)
	// 1+3+4+6 = 14 units
	assert.True(t, recomputed.Equal(dec("46.62")))
	assert.True(t, recomputed.Equal(c.VentasTotales))
}

func TestAuditoriaFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.ventas = NewVentaService(f.store, NewAuditoria(failingQueue{}, nil), false)
	ibu := f.medicamento(t, "Ibuprofeno", 10, "10")
	f.abrir(t, "0")

	venta := f.vender(t, linea(ibu, 1, "10"))
	assert.NotEmpty(t, venta.ID)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
