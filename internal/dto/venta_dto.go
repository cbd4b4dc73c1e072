package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LineaVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	TipoProducto   string          `json:"tipo_producto"   validate:"required,oneof=medicine general"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"omitempty,gt=0"`
}

type RegistrarVentaRequest struct {
	SucursalID string              `json:"sucursal_id" validate:"required,uuid"`
	Lineas     []LineaVentaRequest `json:"lineas"      validate:"dive"`
	// Total is accepted for compatibility and ignored; the server recomputes it.
	Total *decimal.Decimal `json:"total,omitempty"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=255"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LineaVentaResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	TipoProducto   string          `json:"tipo_producto"`
	NombreProducto string          `json:"nombre_producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID              string               `json:"id"`
	Fecha           string               `json:"fecha"`
	Total           decimal.Decimal      `json:"total"`
	SucursalID      string               `json:"sucursal_id"`
	CajaID          *string              `json:"caja_id"`
	UsuarioID       string               `json:"usuario_id"`
	Estado          string               `json:"estado"` // completada | anulada
	MotivoAnulacion *string              `json:"motivo_anulacion,omitempty"`
	Lineas          []LineaVentaResponse `json:"lineas"`
}

type AnulacionResponse struct {
	VentaID   string `json:"venta_id"`
	Motivo    string `json:"motivo"`
	AnuladaAt string `json:"anulada_at"`
}
