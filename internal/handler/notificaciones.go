package handler

import (
	"io"
	"net/http"
	"time"

	"hersis/internal/apierror"
	"hersis/internal/middleware"
	"hersis/internal/repository"
	"hersis/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const sseHeartbeat = 25 * time.Second

// NotificacionesHandler streams the stock monitor's events over SSE.
type NotificacionesHandler struct {
	rdb  *redis.Client
	repo repository.NotificacionRepository
}

func NewNotificacionesHandler(rdb *redis.Client, repo repository.NotificacionRepository) *NotificacionesHandler {
	return &NotificacionesHandler{rdb: rdb, repo: repo}
}

// MarcarLeida godoc
// @Summary Marcar una notificación como leída
// @Tags notificaciones
// @Security BearerAuth
// @Param id path string true "ID de notificación"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Router /v1/notificaciones/{id}/leida [patch]
func (h *NotificacionesHandler) MarcarLeida(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.repo.MarcarLeida(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream godoc
// @Summary Canal SSE de notificaciones de stock y vencimientos
// @Tags notificaciones
// @Produce text/event-stream
// @Security BearerAuth
// @Param sucursal_id query string false "ID de sucursal; por defecto la del token"
// @Success 200
// @Failure 503 {object} apierror.APIError
// @Router /v1/notificaciones/stream [get]
func (h *NotificacionesHandler) Stream(c *gin.Context) {
	sucursalID := c.Query("sucursal_id")
	if claims := middleware.GetClaims(c); sucursalID == "" && claims.SucursalID != nil {
		sucursalID = *claims.SucursalID
	}
	if _, err := uuid.Parse(sucursalID); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("sucursal_id inválido"))
		return
	}
	if !puedeOperar(c, sucursalID) {
		return
	}
	if h.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Canal de notificaciones no disponible"))
		return
	}

	ctx := c.Request.Context()
	pubsub := h.rdb.Subscribe(ctx, worker.CanalNotificaciones(sucursalID))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		writeError(c, err)
		return
	}
	ch := pubsub.Channel()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	log.Debug().Str("sucursal_id", sucursalID).Msg("sse: client subscribed")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case msg, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("notificacion", msg.Payload)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	log.Debug().Str("sucursal_id", sucursalID).Msg("sse: client gone")
}
