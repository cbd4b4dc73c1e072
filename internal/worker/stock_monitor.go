package worker

// stock_monitor.go: periodic scan for low stock and upcoming expirations.
// Every tick it lists active products of both catalogs, persists one
// notificación per (tipo, producto) while the previous one is still activa,
// and publishes it on the sucursal's Redis channel for the SSE stream.
// Activa notificaciones whose product no longer matches are deactivated, so
// the next time the condition holds a new one is emitted.

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const canalNotificacionesPrefix = "notificaciones:"

// CanalNotificaciones is the Pub/Sub channel of a sucursal.
func CanalNotificaciones(sucursalID string) string {
	return canalNotificacionesPrefix + sucursalID
}

// Publisher pushes an encoded notificación to subscribers.
type Publisher interface {
	Publish(ctx context.Context, canal string, payload []byte) error
}

// RedisPublisher publishes through Redis Pub/Sub.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, canal string, payload []byte) error {
	return p.rdb.Publish(ctx, canal, payload).Err()
}

type StockMonitorConfig struct {
	Productos      repository.ProductoRepository
	Notificaciones repository.NotificacionRepository
	Publisher      Publisher // nil disables publishing
	StockMinimo    int
	DiasAviso      int
	Interval       time.Duration
}

// StartStockMonitor runs one scan immediately and then every cfg.Interval
// until ctx is cancelled.
func StartStockMonitor(ctx context.Context, cfg StockMonitorConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		scan := func() {
			n, err := revisarStock(ctx, cfg, time.Now())
			if err != nil {
				log.Error().Err(err).Msg("stock_monitor: scan failed")
				return
			}
			if n > 0 {
				log.Info().Int("notificaciones", n).Msg("stock_monitor: notifications emitted")
			}
		}

		scan()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stock_monitor: shutting down")
				return
			case <-ticker.C:
				scan()
			}
		}
	}()
	log.Info().Dur("interval", cfg.Interval).Msg("stock monitor started")
}

// revisarStock performs one scan and returns how many notificaciones it created.
func revisarStock(ctx context.Context, cfg StockMonitorConfig, now time.Time) (int, error) {
	creadas := 0

	bajos, err := cfg.Productos.ListStockBajo(ctx, cfg.StockMinimo)
	if err != nil {
		return 0, err
	}
	if err := desactivarResueltas(ctx, cfg, model.NotificacionStockBajo, bajos); err != nil {
		return 0, err
	}
	for _, p := range bajos {
		n := &model.Notificacion{
			Tipo:         model.NotificacionStockBajo,
			Prioridad:    prioridadStock(p.Stock),
			Titulo:       "Stock bajo",
			Mensaje:      fmt.Sprintf("%s tiene %d unidades disponibles", p.Nombre, p.Stock),
			ProductoID:   p.ID,
			TipoProducto: p.Tipo,
			SucursalID:   p.SucursalID,
			Activa:       true,
		}
		ok, err := emitir(ctx, cfg, n)
		if err != nil {
			return creadas, err
		}
		if ok {
			creadas++
		}
	}

	porVencer, err := cfg.Productos.ListPorVencer(ctx, now.AddDate(0, 0, cfg.DiasAviso))
	if err != nil {
		return creadas, err
	}
	if err := desactivarResueltas(ctx, cfg, model.NotificacionVencimiento, porVencer); err != nil {
		return creadas, err
	}
	for _, p := range porVencer {
		dias := diasHasta(now, *p.FechaVencimiento)
		mensaje := fmt.Sprintf("%s vence en %d días", p.Nombre, dias)
		if dias <= 0 {
			mensaje = fmt.Sprintf("%s está vencido", p.Nombre)
		}
		n := &model.Notificacion{
			Tipo:         model.NotificacionVencimiento,
			Prioridad:    prioridadVencimiento(dias),
			Titulo:       "Producto próximo a vencer",
			Mensaje:      mensaje,
			ProductoID:   p.ID,
			TipoProducto: p.Tipo,
			SucursalID:   p.SucursalID,
			Activa:       true,
		}
		ok, err := emitir(ctx, cfg, n)
		if err != nil {
			return creadas, err
		}
		if ok {
			creadas++
		}
	}
	return creadas, nil
}

type productoRef struct {
	tipo model.TipoProducto
	id   uuid.UUID
}

// desactivarResueltas clears Activa on the notificaciones of tipo whose
// product is not in vigentes.
func desactivarResueltas(ctx context.Context, cfg StockMonitorConfig, tipo string, vigentes []model.Producto) error {
	activas, err := cfg.Notificaciones.ListActivas(ctx, tipo)
	if err != nil || len(activas) == 0 {
		return err
	}
	siguen := make(map[productoRef]bool, len(vigentes))
	for _, p := range vigentes {
		siguen[productoRef{tipo: p.Tipo, id: p.ID}] = true
	}
	var ids []uuid.UUID
	for _, n := range activas {
		if !siguen[productoRef{tipo: n.TipoProducto, id: n.ProductoID}] {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	log.Debug().Str("tipo", tipo).Int("resueltas", len(ids)).Msg("stock_monitor: notifications deactivated")
	return cfg.Notificaciones.Desactivar(ctx, ids)
}

// emitir persists n unless an activa notificación of the same tipo already
// exists for the product, then publishes it. Publish errors are only logged.
func emitir(ctx context.Context, cfg StockMonitorConfig, n *model.Notificacion) (bool, error) {
	existe, err := cfg.Notificaciones.ExisteActiva(ctx, n.Tipo, n.ProductoID)
	if err != nil || existe {
		return false, err
	}
	if err := cfg.Notificaciones.Create(ctx, n); err != nil {
		return false, err
	}
	if cfg.Publisher == nil {
		return true, nil
	}
	data, err := json.Marshal(NotificacionEvent{
		ID:           n.ID.String(),
		Tipo:         n.Tipo,
		Prioridad:    n.Prioridad,
		Titulo:       n.Titulo,
		Mensaje:      n.Mensaje,
		ProductoID:   n.ProductoID.String(),
		TipoProducto: string(n.TipoProducto),
		CreatedAt:    n.CreatedAt,
	})
	if err != nil {
		return true, nil
	}
	canal := CanalNotificaciones(n.SucursalID.String())
	if err := cfg.Publisher.Publish(ctx, canal, data); err != nil {
		log.Warn().Err(err).Str("canal", canal).Msg("stock_monitor: publish failed")
	}
	return true, nil
}

// NotificacionEvent is the JSON published on the sucursal channel.
type NotificacionEvent struct {
	ID           string    `json:"id"`
	Tipo         string    `json:"tipo"`
	Prioridad    string    `json:"prioridad"`
	Titulo       string    `json:"titulo"`
	Mensaje      string    `json:"mensaje"`
	ProductoID   string    `json:"producto_id"`
	TipoProducto string    `json:"tipo_producto"`
	CreatedAt    time.Time `json:"created_at"`
}

func prioridadStock(stock int) string {
	if stock <= 0 {
		return model.PrioridadCritica
	}
	return model.PrioridadAlta
}

func prioridadVencimiento(dias int) string {
	switch {
	case dias <= 0:
		return model.PrioridadCritica
	case dias <= 7:
		return model.PrioridadAlta
	case dias <= 30:
		return model.PrioridadMedia
	default:
		return model.PrioridadBaja
	}
}

// diasHasta rounds the time left until vence up to whole days.
func diasHasta(now, vence time.Time) int {
	return int(math.Ceil(vence.Sub(now).Hours() / 24))
}
