package service

import (
	"context"
	"testing"

	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostoPromedioPonderado(t *testing.T) {
	cases := []struct {
		name          string
		costo         string
		stockAnterior int
		cantidad      int
		costoEntrada  string
		want          string
	}{
		{"half of stock added", "10", 10, 5, "16", "13"},
		{"entry equals stock", "10", 10, 10, "20", "20"},
		{"first entry", "0", 0, 5, "7.5", "7.5"},
		{"same cost", "3.25", 40, 15, "3.25", "3.25"},
		{"rounded to 4 decimals", "1", 3, 1, "2", "1.3333"},
		{"negative stock", "9", -2, 4, "4", "4"},
		{"floored at zero", "10", 1, 10, "1", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CostoPromedioPonderado(dec(tc.costo), tc.stockAnterior, tc.cantidad, dec(tc.costoEntrada))
			assert.True(t, got.Equal(dec(tc.want)), "got %s", got)
		})
	}
}

func TestRegistrarEntrada_UpdatesStockAndCost(t *testing.T) {
	f := newFixture(t)
	p := f.store.PutProducto(model.TipoMedicamento, model.ProductoBase{
		Nombre: "Amoxicilina", PrecioVenta: dec("30"), PrecioCompra: dec("10"), Stock: 10, Activo: true,
	})

	resp, err := f.inv.RegistrarEntrada(context.Background(), f.cajero.ID, dto.EntradaInventarioRequest{
		ProductoID:    p.ID.String(),
		TipoProducto:  string(model.TipoMedicamento),
		Cantidad:      5,
		CostoUnitario: dec("16"),
	})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.StockAnterior)
	assert.Equal(t, 15, resp.StockNuevo)
	assert.True(t, resp.CostoAnterior.Equal(dec("10")))
	assert.True(t, resp.CostoNuevo.Equal(dec("13")), "got %s", resp.CostoNuevo)

	got, err := f.store.Repos().Productos.FindByID(context.Background(), model.TipoMedicamento, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Stock)
	assert.True(t, got.PrecioCompra.Equal(dec("13")))

	movs := f.store.Movimientos()
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoEntrada, movs[0].Tipo)
	assert.Equal(t, 5, movs[0].Cantidad)
	assert.Equal(t, 1, f.auditoria.count())
}

func TestRegistrarEntrada_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.medicamento(t, "Amoxicilina", 1, "1")

	_, err := f.inv.RegistrarEntrada(ctx, f.cajero.ID, dto.EntradaInventarioRequest{ProductoID: uuid.NewString(), TipoProducto: "medicine", Cantidad: 1})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.inv.RegistrarEntrada(ctx, f.cajero.ID, dto.EntradaInventarioRequest{ProductoID: p.ID.String(), TipoProducto: "general", Cantidad: 1})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.inv.RegistrarEntrada(ctx, f.cajero.ID, dto.EntradaInventarioRequest{ProductoID: p.ID.String(), TipoProducto: "medicine", Cantidad: 0})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = f.inv.RegistrarEntrada(ctx, f.cajero.ID, dto.EntradaInventarioRequest{ProductoID: p.ID.String(), TipoProducto: "medicine", Cantidad: 1, CostoUnitario: decimal.NewFromInt(-1)})
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestVerificarDisponibilidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.general(t, "Gasas", 3, "1")

	ok, err := f.inv.VerificarDisponibilidad(ctx, model.TipoGeneral, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok.Suficiente)

	short, err := f.inv.VerificarDisponibilidad(ctx, model.TipoGeneral, p.ID, 10)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	require.NotNil(t, short)
	assert.False(t, short.Suficiente)
	assert.Equal(t, 3, short.Disponible)
	assert.Equal(t, 10, short.Solicitado)

	_, err = f.inv.VerificarDisponibilidad(ctx, model.TipoMedicamento, p.ID, 1)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.inv.VerificarDisponibilidad(ctx, model.TipoProducto("x"), p.ID, 1)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestMovimientos_ListsLedgerHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.medicamento(t, "Ibuprofeno", 10, "5")
	f.abrir(t, "0")
	venta := f.vender(t, linea(p, 4, "5"))
	_, err := f.ventas.Anular(ctx, f.cajero.ID, uuid.MustParse(venta.ID), "devolución")
	require.NoError(t, err)

	movs, err := f.inv.Movimientos(ctx, model.TipoMedicamento, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)

	var total int
	for _, m := range movs {
		total += m.Cantidad
		require.NotNil(t, m.ReferenciaID)
		assert.Equal(t, venta.ID, *m.ReferenciaID)
	}
	assert.Zero(t, total)
}
