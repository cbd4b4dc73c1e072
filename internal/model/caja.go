package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoCaja: "abierta" | "cerrada". A closed caja never reopens.
type EstadoCaja string

const (
	CajaAbierta EstadoCaja = "abierta"
	CajaCerrada EstadoCaja = "cerrada"
)

// Caja is one cash-drawer accounting period of a sucursal.
// While abierta, MontoEsperado == MontoInicial + VentasTotales.
// The partial unique index uq_cajas_sucursal_abierta allows a single
// abierta row per sucursal. Version is bumped on every write.
type Caja struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SucursalID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	UsuarioAperturaID uuid.UUID  `gorm:"type:uuid;not null"`
	UsuarioCierreID   *uuid.UUID `gorm:"type:uuid"`
	FechaApertura     time.Time  `gorm:"not null"`
	FechaCierre       *time.Time
	MontoInicial      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	VentasTotales     decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	MontoEsperado     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MontoFinal        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado            EstadoCaja       `gorm:"type:varchar(20);not null;default:'abierta'"`
	Observaciones     *string
	Version           int `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Caja) TableName() string { return "cajas" }

func (c *Caja) Abierta() bool { return c.Estado == CajaAbierta }
