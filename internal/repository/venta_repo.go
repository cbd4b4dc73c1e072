package repository

import (
	"context"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaRepository interface {
	// Create inserts the venta header and its Detalles.
	Create(ctx context.Context, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// ListByCaja returns the completadas of a caja, newest first, with Detalles.
	ListByCaja(ctx context.Context, cajaID uuid.UUID) ([]model.Venta, error)
	// SumTotalByCaja aggregates the total of every completada of a caja.
	SumTotalByCaja(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error)
	CountByCaja(ctx context.Context, cajaID uuid.UUID) (int64, error)
	Anular(ctx context.Context, id uuid.UUID, motivo string, at time.Time) error
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Detalles").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "venta", id)
	}
	return &v, nil
}

func (r *ventaRepo) ListByCaja(ctx context.Context, cajaID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).Preload("Detalles").
		Where("caja_id = ? AND estado = ?", cajaID, model.VentaCompletada).
		Order("fecha DESC").Find(&ventas).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return ventas, nil
}

func (r *ventaRepo) SumTotalByCaja(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Select("SUM(total)").
		Where("caja_id = ? AND estado = ?", cajaID, model.VentaCompletada).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, apperror.Internal(err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *ventaRepo) CountByCaja(ctx context.Context, cajaID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("caja_id = ? AND estado = ?", cajaID, model.VentaCompletada).
		Count(&n).Error
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return n, nil
}

func (r *ventaRepo) Anular(ctx context.Context, id uuid.UUID, motivo string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ? AND estado = ?", id, model.VentaCompletada).
		UpdateColumns(map[string]interface{}{
			"estado":           model.VentaAnulada,
			"motivo_anulacion": motivo,
			"anulada_at":       at,
		})
	if res.Error != nil {
		return apperror.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("la venta ya está anulada")
	}
	return nil
}
