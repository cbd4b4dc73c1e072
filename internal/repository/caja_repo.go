package repository

import (
	"context"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	// Create fails with Conflict when the sucursal already has an abierta caja.
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	// FindByIDForUpdate locks the caja row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	// FindAbiertaBySucursal returns NotFound when the sucursal has no abierta caja.
	FindAbiertaBySucursal(ctx context.Context, sucursalID uuid.UUID) (*model.Caja, error)
	FindAbiertaBySucursalForUpdate(ctx context.Context, sucursalID uuid.UUID) (*model.Caja, error)
	ListBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]model.Caja, error)
	// ApplyDelta adds monto to ventas_totales and recomputes monto_esperado
	// in a single statement. Only abierta cajas are touched.
	ApplyDelta(ctx context.Context, id uuid.UUID, monto decimal.Decimal) error
	// Update persists the mutable columns if c.Version still matches, then
	// bumps c.Version.
	Update(ctx context.Context, c *model.Caja) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("ya existe una caja abierta en esta sucursal")
		}
		return apperror.Internal(err)
	}
	return nil
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "caja", id)
	}
	return &c, nil
}

func (r *cajaRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "caja", id)
	}
	return &c, nil
}

func (r *cajaRepo) FindAbiertaBySucursal(ctx context.Context, sucursalID uuid.UUID) (*model.Caja, error) {
	return r.findAbierta(r.db.WithContext(ctx), sucursalID)
}

func (r *cajaRepo) FindAbiertaBySucursalForUpdate(ctx context.Context, sucursalID uuid.UUID) (*model.Caja, error) {
	return r.findAbierta(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), sucursalID)
}

func (r *cajaRepo) findAbierta(q *gorm.DB, sucursalID uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := q.Where("sucursal_id = ? AND estado = ?", sucursalID, model.CajaAbierta).First(&c).Error
	if err != nil {
		return nil, translate(err, "caja abierta de la sucursal", sucursalID)
	}
	return &c, nil
}

func (r *cajaRepo) ListBySucursal(ctx context.Context, sucursalID uuid.UUID) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).Where("sucursal_id = ?", sucursalID).
		Order("fecha_apertura DESC").Find(&cajas).Error
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return cajas, nil
}

func (r *cajaRepo) ApplyDelta(ctx context.Context, id uuid.UUID, monto decimal.Decimal) error {
	// Every right-hand side sees the pre-update row, so monto_esperado is
	// computed from the old ventas_totales plus monto.
	res := r.db.WithContext(ctx).Model(&model.Caja{}).
		Where("id = ? AND estado = ?", id, model.CajaAbierta).
		UpdateColumns(map[string]interface{}{
			"ventas_totales": gorm.Expr("ventas_totales + ?", monto),
			"monto_esperado": gorm.Expr("monto_inicial + ventas_totales + ?", monto),
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return apperror.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return apperror.Conflict("la caja está cerrada")
	}
	return nil
}

func (r *cajaRepo) Update(ctx context.Context, c *model.Caja) error {
	res := r.db.WithContext(ctx).Model(&model.Caja{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		UpdateColumns(map[string]interface{}{
			"usuario_cierre_id": c.UsuarioCierreID,
			"fecha_cierre":      c.FechaCierre,
			"ventas_totales":    c.VentasTotales,
			"monto_esperado":    c.MontoEsperado,
			"monto_final":       c.MontoFinal,
			"diferencia":        c.Diferencia,
			"estado":            c.Estado,
			"observaciones":     c.Observaciones,
			"version":           c.Version + 1,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return apperror.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, c.ID); err != nil {
			return err
		}
		return apperror.Conflict("la caja fue modificada por otra operación")
	}
	c.Version++
	return nil
}

func (r *cajaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Caja{}, "id = ?", id)
	if res.Error != nil {
		return apperror.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("caja", id)
	}
	return nil
}
