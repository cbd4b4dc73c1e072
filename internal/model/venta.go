package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoVenta: "completada" | "anulada".
// Anuladas stay in the table for traceability but no longer count towards
// the caja totals.
type EstadoVenta string

const (
	VentaCompletada EstadoVenta = "completada"
	VentaAnulada    EstadoVenta = "anulada"
)

// Venta is a posted sale. Total == SUM(Detalles.Subtotal) at commit time.
// CajaID is nullable only for rows imported before cajas existed.
type Venta struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Fecha           time.Time       `gorm:"not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SucursalID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CajaID          *uuid.UUID      `gorm:"type:uuid;index"`
	UsuarioID       uuid.UUID       `gorm:"type:uuid;not null"`
	Estado          EstadoVenta     `gorm:"type:varchar(20);not null;default:'completada'"`
	MotivoAnulacion *string
	AnuladaAt       *time.Time
	CreatedAt       time.Time

	Detalles []DetalleVenta `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

// DetalleVenta is an immutable sale line. NombreProducto is a snapshot taken
// at posting time.
type DetalleVenta struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	TipoProducto   TipoProducto    `gorm:"type:varchar(20);not null"`
	NombreProducto string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (DetalleVenta) TableName() string { return "detalles_venta" }
