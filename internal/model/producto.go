package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoProducto discriminates the two product catalogs.
// Every stock operation dispatches on it explicitly; it is recorded on each
// DetalleVenta so that a cancellation can find the right table later.
type TipoProducto string

const (
	TipoMedicamento TipoProducto = "medicine"
	TipoGeneral     TipoProducto = "general"
)

// Valid reports whether t is one of the known product types.
func (t TipoProducto) Valid() bool {
	return t == TipoMedicamento || t == TipoGeneral
}

// ProductoBase holds the columns shared by medicamentos and productos_generales.
// Stock is the current available quantity; PrecioCompra is the rolling
// weighted-average purchase cost.
type ProductoBase struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre           string    `gorm:"index;not null"`
	Descripcion      *string
	CodigoBarras     *string         `gorm:"index"`
	PrecioVenta      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PrecioCompra     decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	Stock            int             `gorm:"not null;default:0"`
	UnidadesPorCaja  int             `gorm:"not null;default:1"`
	Lote             *string
	FechaVencimiento *time.Time
	Activo           bool       `gorm:"not null;default:true"`
	CategoriaID      *uuid.UUID `gorm:"type:uuid;index"`
	SucursalID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Medicamento is a pharmaceutical product.
type Medicamento struct {
	ProductoBase      `gorm:"embedded"`
	PrincipioActivo   string `gorm:"not null"`
	Dosis             *string
	Presentacion      *string
	RequiereReceta    bool `gorm:"not null;default:false"`
	Laboratorio       *string
	RegistroSanitario *string
	ViaAdministracion *string
}

func (Medicamento) TableName() string { return "medicamentos" }

// ProductoGeneral is any non-pharmaceutical good.
type ProductoGeneral struct {
	ProductoBase `gorm:"embedded"`
	Marca        *string
	Modelo       *string
}

func (ProductoGeneral) TableName() string { return "productos_generales" }

// Producto is the type-tagged view the stock ledger works with.
type Producto struct {
	ProductoBase
	Tipo TipoProducto
}
