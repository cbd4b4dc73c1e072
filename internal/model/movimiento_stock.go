package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de MovimientoStock.
const (
	MovimientoVenta     = "venta"
	MovimientoAnulacion = "restore_anulacion"
	MovimientoEntrada   = "entrada_inventario"
)

// MovimientoStock records every stock change of a product, written in the
// same transaction as the change itself.
type MovimientoStock struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	TipoProducto  TipoProducto `gorm:"type:varchar(20);not null"`
	Tipo          string       `gorm:"not null"`
	Cantidad      int          `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int          `gorm:"not null"`
	StockNuevo    int          `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // venta_id when applicable
	UsuarioID     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
