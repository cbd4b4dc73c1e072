package model

import (
	"time"

	"github.com/google/uuid"
)

// AccionLog: "create" | "update" | "delete" | "sales" | "updateStock"
type AccionLog string

const (
	AccionCrear       AccionLog = "create"
	AccionActualizar  AccionLog = "update"
	AccionEliminar    AccionLog = "delete"
	AccionVentas      AccionLog = "sales"
	AccionActualStock AccionLog = "updateStock"
)

// LogAuditoria is one audit trail entry. Written asynchronously; a lost entry
// never invalidates the operation it describes.
type LogAuditoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Accion      AccionLog `gorm:"type:varchar(20);not null"`
	Entidad     string    `gorm:"not null"`
	Descripcion string    `gorm:"not null"`
	UsuarioID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Timestamp   time.Time `gorm:"not null"`
}

func (LogAuditoria) TableName() string { return "logs" }
