package repository

import (
	"context"

	"hersis/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SucursalRepository is the narrow branch lookup the core needs; branch CRUD
// lives in the administration service.
type SucursalRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sucursal, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type sucursalRepo struct{ db *gorm.DB }

func NewSucursalRepository(db *gorm.DB) SucursalRepository { return &sucursalRepo{db: db} }

func (r *sucursalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sucursal, error) {
	var s model.Sucursal
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "sucursal", id)
	}
	return &s, nil
}

func (r *sucursalRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sucursal{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, translate(err, "sucursal", id)
	}
	return n > 0, nil
}
