package model

import (
	"time"

	"github.com/google/uuid"
)

// Sucursal is a physical store. It owns at most one abierta Caja at a time.
type Sucursal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"not null"`
	Direccion *string
	Telefono  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Sucursal) TableName() string { return "sucursales" }
