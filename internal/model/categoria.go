package model

import (
	"github.com/google/uuid"
)

// Categoria groups catalog products (analgésicos, higiene, ...). Catalog
// maintenance lives outside this service; the seed tool creates a few.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"uniqueIndex;not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
}

func (Categoria) TableName() string { return "categorias" }
