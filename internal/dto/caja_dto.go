package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	SucursalID    string          `json:"sucursal_id"   validate:"required,uuid"`
	MontoInicial  decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	Observaciones *string         `json:"observaciones" validate:"omitempty,max=1000"`
}

type CerrarCajaRequest struct {
	MontoFinal    decimal.Decimal `json:"monto_final"   validate:"min=0"`
	Observaciones *string         `json:"observaciones" validate:"omitempty,max=1000"`
}

type ActualizarObservacionesRequest struct {
	Observaciones string `json:"observaciones" validate:"max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID                string           `json:"id"`
	SucursalID        string           `json:"sucursal_id"`
	UsuarioAperturaID string           `json:"usuario_apertura_id"`
	UsuarioCierreID   *string          `json:"usuario_cierre_id"`
	FechaApertura     string           `json:"fecha_apertura"`
	FechaCierre       *string          `json:"fecha_cierre"`
	MontoInicial      decimal.Decimal  `json:"monto_inicial"`
	VentasTotales     decimal.Decimal  `json:"ventas_totales"`
	MontoEsperado     decimal.Decimal  `json:"monto_esperado"`
	MontoFinal        *decimal.Decimal `json:"monto_final"`
	Diferencia        *decimal.Decimal `json:"diferencia"`
	Estado            string           `json:"estado"` // abierta | cerrada
	Observaciones     *string          `json:"observaciones"`
}

type DesvioResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
}

// ResumenCajaResponse is returned by GET /v1/cajas/:id/resumen.
// Desvio is nil while the caja is abierta.
type ResumenCajaResponse struct {
	Caja           CajaResponse    `json:"caja"`
	CantidadVentas int64           `json:"cantidad_ventas"`
	Desvio         *DesvioResponse `json:"desvio"`
}

type VentasCajaResponse struct {
	CajaID   string          `json:"caja_id"`
	Cantidad int             `json:"cantidad"`
	Monto    decimal.Decimal `json:"monto"`
	Ventas   []VentaResponse `json:"ventas"`
}

// AuditoriaCajaResponse compares the running totals of a caja against the
// totals recomputed from its completadas.
type AuditoriaCajaResponse struct {
	CajaID             string          `json:"caja_id"`
	VentasRegistradas  decimal.Decimal `json:"ventas_registradas"`
	VentasCalculadas   decimal.Decimal `json:"ventas_calculadas"`
	EsperadoRegistrado decimal.Decimal `json:"esperado_registrado"`
	EsperadoCalculado  decimal.Decimal `json:"esperado_calculado"`
	Consistente        bool            `json:"consistente"`
}
