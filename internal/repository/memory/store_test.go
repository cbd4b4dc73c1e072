package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducto(s *Store, stock int) model.Producto {
	return s.PutProducto(model.TipoMedicamento, model.ProductoBase{
		Nombre:      "Paracetamol 500mg",
		PrecioVenta: decimal.RequireFromString("12.50"),
		Stock:       stock,
		Activo:      true,
	})
}

func TestExecute_RollsBackOnError(t *testing.T) {
	s := NewStore()
	p := seedProducto(s, 10)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Execute(ctx, func(r repository.Repos) error {
		_, err := r.Productos.DecrementStock(ctx, model.TipoMedicamento, p.ID, 4)
		require.NoError(t, err)
		require.NoError(t, r.Ventas.Create(ctx, &model.Venta{Total: decimal.NewFromInt(50)}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Repos().Productos.FindByID(ctx, model.TipoMedicamento, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.Empty(t, s.st.ventas)
}

func TestExecute_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	p := seedProducto(s, 10)
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.Execute(ctx, func(r repository.Repos) error {
			_, _ = r.Productos.DecrementStock(ctx, model.TipoMedicamento, p.ID, 4)
			panic("unexpected")
		})
	})

	got, err := s.Repos().Productos.FindByID(ctx, model.TipoMedicamento, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

func TestDecrementStock_Insufficient(t *testing.T) {
	s := NewStore()
	p := seedProducto(s, 3)

	_, err := s.Repos().Productos.DecrementStock(context.Background(), model.TipoMedicamento, p.ID, 10)

	d, ok := apperror.Stock(err)
	require.True(t, ok)
	assert.Equal(t, 3, d.Disponible)
	assert.Equal(t, 10, d.Solicitado)
}

func TestProductos_TipoIsPartOfTheKey(t *testing.T) {
	s := NewStore()
	p := seedProducto(s, 3)

	_, err := s.Repos().Productos.FindByID(context.Background(), model.TipoGeneral, p.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = s.Repos().Productos.FindByID(context.Background(), model.TipoProducto("cosmetic"), p.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestCajaCreate_SingleAbiertaPerSucursal(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	sucursal := uuid.New()

	first := &model.Caja{SucursalID: sucursal, Estado: model.CajaAbierta, FechaApertura: time.Now()}
	require.NoError(t, s.Repos().Cajas.Create(ctx, first))

	err := s.Repos().Cajas.Create(ctx, &model.Caja{SucursalID: sucursal, Estado: model.CajaAbierta})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	other := &model.Caja{SucursalID: uuid.New(), Estado: model.CajaAbierta}
	assert.NoError(t, s.Repos().Cajas.Create(ctx, other))
}

func TestCajaApplyDelta_KeepsBalance(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	c := &model.Caja{
		SucursalID:    uuid.New(),
		Estado:        model.CajaAbierta,
		MontoInicial:  decimal.NewFromInt(100),
		MontoEsperado: decimal.NewFromInt(100),
	}
	require.NoError(t, s.Repos().Cajas.Create(ctx, c))

	require.NoError(t, s.Repos().Cajas.ApplyDelta(ctx, c.ID, decimal.NewFromInt(50)))
	require.NoError(t, s.Repos().Cajas.ApplyDelta(ctx, c.ID, decimal.NewFromInt(-20)))

	got, err := s.Repos().Cajas.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.VentasTotales.Equal(decimal.NewFromInt(30)))
	assert.True(t, got.MontoEsperado.Equal(decimal.NewFromInt(130)))
	assert.Equal(t, 3, got.Version)
}

func TestCajaUpdate_StaleVersion(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	c := &model.Caja{SucursalID: uuid.New(), Estado: model.CajaAbierta}
	require.NoError(t, s.Repos().Cajas.Create(ctx, c))

	stale := *c
	require.NoError(t, s.Repos().Cajas.ApplyDelta(ctx, c.ID, decimal.NewFromInt(10)))

	err := s.Repos().Cajas.Update(ctx, &stale)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestSeedDemo(t *testing.T) {
	s := NewStore()
	d := SeedDemo(s, "hash")
	ctx := context.Background()

	ok, err := s.Repos().Sucursales.Exists(ctx, d.Sucursal.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, d.Cajero.SucursalID)
	assert.Equal(t, d.Sucursal.ID, *d.Cajero.SucursalID)

	bajo, err := s.Repos().Productos.ListStockBajo(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, bajo, 2)
}
