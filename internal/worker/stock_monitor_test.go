package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hersis/internal/model"
	"hersis/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	canales []string
	eventos []NotificacionEvent
}

func (p *capturePublisher) Publish(_ context.Context, canal string, payload []byte) error {
	var ev NotificacionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	p.canales = append(p.canales, canal)
	p.eventos = append(p.eventos, ev)
	return nil
}

func TestPrioridadVencimiento(t *testing.T) {
	cases := map[int]string{
		-3: model.PrioridadCritica,
		0:  model.PrioridadCritica,
		1:  model.PrioridadAlta,
		7:  model.PrioridadAlta,
		8:  model.PrioridadMedia,
		30: model.PrioridadMedia,
		31: model.PrioridadBaja,
	}
	for dias, want := range cases {
		assert.Equal(t, want, prioridadVencimiento(dias), "dias=%d", dias)
	}
}

func TestPrioridadStock(t *testing.T) {
	assert.Equal(t, model.PrioridadCritica, prioridadStock(0))
	assert.Equal(t, model.PrioridadAlta, prioridadStock(4))
}

func TestDiasHasta_RoundsUp(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, diasHasta(now, now.Add(2*time.Hour)))
	assert.Equal(t, 7, diasHasta(now, now.Add(6*24*time.Hour+time.Minute)))
	assert.Equal(t, 0, diasHasta(now, now.Add(-2*time.Hour)))
}

func TestRevisarStock_EmitsOncePerProduct(t *testing.T) {
	store := memory.NewStore()
	sucursal := store.PutSucursal(model.Sucursal{Nombre: "Centro"})
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	vence := now.AddDate(0, 0, 5)

	agotado := store.PutProducto(model.TipoMedicamento, model.ProductoBase{
		Nombre: "Ibuprofeno 400", PrecioVenta: decimal.NewFromInt(10), Stock: 0, Activo: true, SucursalID: sucursal.ID,
	})
	store.PutProducto(model.TipoGeneral, model.ProductoBase{
		Nombre: "Alcohol en gel", PrecioVenta: decimal.NewFromInt(5), Stock: 50, Activo: true,
		FechaVencimiento: &vence, SucursalID: sucursal.ID,
	})
	store.PutProducto(model.TipoGeneral, model.ProductoBase{
		Nombre: "Inactivo", Stock: 0, Activo: false, SucursalID: sucursal.ID,
	})

	pub := &capturePublisher{}
	cfg := StockMonitorConfig{
		Productos:      store.Repos().Productos,
		Notificaciones: store.Repos().Notificaciones,
		Publisher:      pub,
		StockMinimo:    10,
		DiasAviso:      30,
	}

	n, err := revisarStock(context.Background(), cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	notifs := store.Notificaciones()
	require.Len(t, notifs, 2)
	porTipo := map[string]model.Notificacion{}
	for _, nt := range notifs {
		porTipo[nt.Tipo] = nt
	}
	assert.Equal(t, agotado.ID, porTipo[model.NotificacionStockBajo].ProductoID)
	assert.Equal(t, model.PrioridadCritica, porTipo[model.NotificacionStockBajo].Prioridad)
	assert.Equal(t, model.PrioridadAlta, porTipo[model.NotificacionVencimiento].Prioridad)
	assert.Equal(t, model.TipoGeneral, porTipo[model.NotificacionVencimiento].TipoProducto)

	require.Len(t, pub.canales, 2)
	assert.Equal(t, "notificaciones:"+sucursal.ID.String(), pub.canales[0])

	// Second scan: both notifications are still activa, nothing new
	n, err = revisarStock(context.Background(), cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, store.Notificaciones(), 2)
}

func TestRevisarStock_RestockClearsAndLowAgainReemits(t *testing.T) {
	store := memory.NewStore()
	sucursal := store.PutSucursal(model.Sucursal{Nombre: "Centro"})
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	ibu := store.PutProducto(model.TipoMedicamento, model.ProductoBase{
		Nombre: "Ibuprofeno 400", PrecioVenta: decimal.NewFromInt(10), Stock: 2, Activo: true, SucursalID: sucursal.ID,
	})
	cfg := StockMonitorConfig{
		Productos:      store.Repos().Productos,
		Notificaciones: store.Repos().Notificaciones,
		StockMinimo:    10,
		DiasAviso:      30,
	}
	setStock := func(stock int) {
		require.NoError(t, store.Repos().Productos.UpdateStockYCosto(ctx, model.TipoMedicamento, ibu.ID, stock, decimal.Zero))
	}

	n, err := revisarStock(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	setStock(102)
	n, err = revisarStock(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	notifs := store.Notificaciones()
	require.Len(t, notifs, 1)
	assert.False(t, notifs[0].Activa)

	setStock(1)
	n, err = revisarStock(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	notifs = store.Notificaciones()
	require.Len(t, notifs, 2)
	assert.False(t, notifs[0].Activa)
	assert.True(t, notifs[1].Activa)
	assert.Contains(t, notifs[1].Mensaje, "1 unidades")

	// still low: no duplicate, the activa one is kept
	n, err = revisarStock(ctx, cfg, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, store.Notificaciones()[1].Activa)
}

func TestNotificacion_MarcarLeida(t *testing.T) {
	store := memory.NewStore()
	repo := store.Repos().Notificaciones
	n := &model.Notificacion{Tipo: model.NotificacionStockBajo, Activa: true}
	require.NoError(t, repo.Create(context.Background(), n))

	require.NoError(t, repo.MarcarLeida(context.Background(), n.ID))
	assert.True(t, store.Notificaciones()[0].Leida)

	err := repo.MarcarLeida(context.Background(), uuid.New())
	require.Error(t, err)
}
