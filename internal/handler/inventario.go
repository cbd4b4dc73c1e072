package handler

import (
	"net/http"
	"strconv"

	"hersis/internal/apierror"
	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

func productoParams(c *gin.Context) (model.TipoProducto, uuid.UUID, bool) {
	tipo := model.TipoProducto(c.Param("tipo"))
	if !tipo.Valid() {
		c.JSON(http.StatusBadRequest, apierror.New("tipo de producto inválido"))
		return "", uuid.Nil, false
	}
	id, ok := uuidParam(c, "id")
	return tipo, id, ok
}

// Disponibilidad answers 200 in both cases; suficiente tells them apart.
func (h *InventarioHandler) Disponibilidad(c *gin.Context) {
	tipo, id, ok := productoParams(c)
	if !ok {
		return
	}
	cantidad, err := strconv.Atoi(c.DefaultQuery("cantidad", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("cantidad inválida"))
		return
	}
	resp, err := h.svc.VerificarDisponibilidad(c.Request.Context(), tipo, id, cantidad)
	if err != nil && !(resp != nil && apperror.Is(err, apperror.KindInsufficientStock)) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) RegistrarEntrada(c *gin.Context) {
	var req dto.EntradaInventarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarEntrada(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	tipo, id, ok := productoParams(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.svc.Movimientos(c.Request.Context(), tipo, id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
