package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de notificación emitidos por el monitor de stock.
const (
	NotificacionStockBajo   = "low_stock"
	NotificacionVencimiento = "expiration_warning"
)

// Prioridad: "low" | "medium" | "high" | "critical"
const (
	PrioridadBaja    = "low"
	PrioridadMedia   = "medium"
	PrioridadAlta    = "high"
	PrioridadCritica = "critical"
)

type Notificacion struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo         string       `gorm:"type:varchar(30);not null"`
	Prioridad    string       `gorm:"type:varchar(10);not null"`
	Titulo       string       `gorm:"not null"`
	Mensaje      string       `gorm:"not null"`
	ProductoID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	TipoProducto TipoProducto `gorm:"type:varchar(20);not null"`
	SucursalID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	// Activa is cleared by the stock monitor once the condition that raised
	// it no longer holds
	Activa bool `gorm:"not null;default:true"`
	// Leida is set when a user acknowledges the notificación
	Leida     bool `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (Notificacion) TableName() string { return "notificaciones" }
