package handler

import (
	"net/http"

	"hersis/internal/dto"
	"hersis/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CajaHandler struct {
	svc          service.CajaService
	conciliacion service.ConciliacionService
}

func NewCajaHandler(svc service.CajaService, conciliacion service.ConciliacionService) *CajaHandler {
	return &CajaHandler{svc: svc, conciliacion: conciliacion}
}

// operable loads the caja and rejects callers pinned to another sucursal.
func (h *CajaHandler) operable(c *gin.Context, id uuid.UUID) bool {
	caja, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return false
	}
	return puedeOperar(c, caja.SucursalID)
}

// Abrir godoc
// @Summary Abre una caja en la sucursal
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/cajas/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !puedeOperar(c, req.SucursalID) {
		return
	}
	resp, err := h.svc.Abrir(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Cierra la caja con el efectivo contado
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Param body body dto.CerrarCajaRequest true "Efectivo contado"
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cajas/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !h.operable(c, id) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), usuarioActual(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetActiva godoc
// @Summary Obtiene la caja abierta de una sucursal
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string true "ID de sucursal"
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/activa [get]
func (h *CajaHandler) GetActiva(c *gin.Context) {
	sucursalID, ok := uuidQuery(c, "sucursal_id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerActiva(c.Request.Context(), sucursalID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista las cajas de una sucursal, más recientes primero
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string true "ID de sucursal"
// @Success 200 {array} dto.CajaResponse
// @Router /v1/cajas [get]
func (h *CajaHandler) Listar(c *gin.Context) {
	sucursalID, ok := uuidQuery(c, "sucursal_id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorSucursal(c.Request.Context(), sucursalID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary Obtiene una caja
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id} [get]
func (h *CajaHandler) Obtener(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resumen godoc
// @Summary Resumen de la caja con cantidad de ventas y desvío
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.ResumenCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/resumen [get]
func (h *CajaHandler) Resumen(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ventas godoc
// @Summary Ventas completadas de la caja
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.VentasCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/ventas [get]
func (h *CajaHandler) Ventas(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Ventas(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Auditoria godoc
// @Summary Compara los totales de la caja con los recalculados desde sus ventas
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.AuditoriaCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/auditoria [get]
func (h *CajaHandler) Auditoria(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.conciliacion.Auditar(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sincronizar godoc
// @Summary Recalcula ventas_totales y monto_esperado de una caja abierta
// @Tags cajas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cajas/{id}/sincronizar [post]
func (h *CajaHandler) Sincronizar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if !h.operable(c, id) {
		return
	}
	resp, err := h.svc.SincronizarTotales(c.Request.Context(), usuarioActual(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarObservaciones godoc
// @Summary Reemplaza las observaciones de la caja
// @Tags cajas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Param body body dto.ActualizarObservacionesRequest true "Observaciones"
// @Success 200 {object} dto.CajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cajas/{id}/observaciones [patch]
func (h *CajaHandler) ActualizarObservaciones(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarObservacionesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !h.operable(c, id) {
		return
	}
	resp, err := h.svc.ActualizarObservaciones(c.Request.Context(), usuarioActual(c), id, req.Observaciones)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Elimina una caja cerrada
// @Tags cajas
// @Security BearerAuth
// @Param id path string true "ID de caja"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cajas/{id} [delete]
func (h *CajaHandler) Eliminar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if !h.operable(c, id) {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), usuarioActual(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
