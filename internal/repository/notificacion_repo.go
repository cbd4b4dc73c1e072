package repository

import (
	"context"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificacionRepository interface {
	Create(ctx context.Context, n *model.Notificacion) error
	// ExisteActiva reports whether an activa notification of tipo already
	// exists for the product.
	ExisteActiva(ctx context.Context, tipo string, productoID uuid.UUID) (bool, error)
	ListActivas(ctx context.Context, tipo string) ([]model.Notificacion, error)
	Desactivar(ctx context.Context, ids []uuid.UUID) error
	MarcarLeida(ctx context.Context, id uuid.UUID) error
}

type notificacionRepo struct{ db *gorm.DB }

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepo{db: db}
}

func (r *notificacionRepo) Create(ctx context.Context, n *model.Notificacion) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *notificacionRepo) ExisteActiva(ctx context.Context, tipo string, productoID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("tipo = ? AND producto_id = ? AND activa = true", tipo, productoID).
		Count(&n).Error
	if err != nil {
		return false, apperror.Internal(err)
	}
	return n > 0, nil
}

func (r *notificacionRepo) ListActivas(ctx context.Context, tipo string) ([]model.Notificacion, error) {
	var out []model.Notificacion
	err := r.db.WithContext(ctx).
		Where("tipo = ? AND activa = true", tipo).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}

func (r *notificacionRepo) Desactivar(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id IN ?", ids).
		Update("activa", false).Error
	if err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (r *notificacionRepo) MarcarLeida(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ?", id).
		Update("leida", true)
	if res.Error != nil {
		return apperror.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("notificación", id)
	}
	return nil
}
