package repository

import (
	"context"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovimientoStockRepository interface {
	Create(ctx context.Context, m *model.MovimientoStock) error
	ListByProducto(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) Create(ctx context.Context, m *model.MovimientoStock) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *movimientoStockRepo) ListByProducto(ctx context.Context, tipo model.TipoProducto, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var movimientos []model.MovimientoStock
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND tipo_producto = ?", productoID, tipo).
		Order("created_at DESC").Limit(limit).Find(&movimientos).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return movimientos, nil
}
