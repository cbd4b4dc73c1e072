package repository

import (
	"context"
	"fmt"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository is the stock-ledger view of both product catalogs.
// Every method takes the TipoProducto and dispatches to its table.
type ProductoRepository interface {
	FindByID(ctx context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error)
	FindByIDForUpdate(ctx context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error)
	// DecrementStock subtracts cantidad only when that leaves stock >= 0 and
	// returns the resulting stock. Fails with NotFound or InsufficientStock.
	DecrementStock(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error)
	// IncrementStock adds cantidad unconditionally and returns the resulting stock.
	IncrementStock(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error)
	UpdateStockYCosto(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, stock int, costo decimal.Decimal) error
	ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error)
	ListPorVencer(ctx context.Context, hasta time.Time) ([]model.Producto, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

// tablaProducto is the only place a TipoProducto becomes a table name.
func tablaProducto(tipo model.TipoProducto) (string, error) {
	switch tipo {
	case model.TipoMedicamento:
		return model.Medicamento{}.TableName(), nil
	case model.TipoGeneral:
		return model.ProductoGeneral{}.TableName(), nil
	}
	return "", apperror.InvalidArgument(fmt.Sprintf("tipo de producto desconocido: %q", tipo))
}

func (r *productoRepo) FindByID(ctx context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error) {
	return r.find(r.db.WithContext(ctx), tipo, id)
}

func (r *productoRepo) FindByIDForUpdate(ctx context.Context, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tipo, id)
}

func (r *productoRepo) find(q *gorm.DB, tipo model.TipoProducto, id uuid.UUID) (*model.Producto, error) {
	tabla, err := tablaProducto(tipo)
	if err != nil {
		return nil, err
	}
	var base model.ProductoBase
	if err := q.Table(tabla).Where("id = ?", id).Take(&base).Error; err != nil {
		return nil, translate(err, "producto", id)
	}
	return &model.Producto{ProductoBase: base, Tipo: tipo}, nil
}

type stockRow struct{ Stock int }

func (r *productoRepo) DecrementStock(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error) {
	tabla, err := tablaProducto(tipo)
	if err != nil {
		return 0, err
	}
	var rows []stockRow
	err = r.db.WithContext(ctx).Raw(
		"UPDATE "+tabla+" SET stock = stock - ?, updated_at = now() WHERE id = ? AND stock >= ? RETURNING stock",
		cantidad, id, cantidad,
	).Scan(&rows).Error
	if err != nil {
		return 0, translate(err, "producto", id)
	}
	if len(rows) == 1 {
		return rows[0].Stock, nil
	}

	// Nothing updated: either the product is gone or stock is short.
	p, err := r.FindByID(ctx, tipo, id)
	if err != nil {
		return 0, err
	}
	return 0, apperror.InsufficientStock(id, string(tipo), p.Nombre, p.Stock, cantidad)
}

func (r *productoRepo) IncrementStock(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, cantidad int) (int, error) {
	tabla, err := tablaProducto(tipo)
	if err != nil {
		return 0, err
	}
	var rows []stockRow
	err = r.db.WithContext(ctx).Raw(
		"UPDATE "+tabla+" SET stock = stock + ?, updated_at = now() WHERE id = ? RETURNING stock",
		cantidad, id,
	).Scan(&rows).Error
	if err != nil {
		return 0, translate(err, "producto", id)
	}
	if len(rows) == 0 {
		return 0, apperror.NotFound("producto", id)
	}
	return rows[0].Stock, nil
}

func (r *productoRepo) UpdateStockYCosto(ctx context.Context, tipo model.TipoProducto, id uuid.UUID, stock int, costo decimal.Decimal) error {
	tabla, err := tablaProducto(tipo)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Table(tabla).Where("id = ?", id).Updates(map[string]interface{}{
		"stock":         stock,
		"precio_compra": costo,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		return translate(res.Error, "producto", id)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("producto", id)
	}
	return nil
}

func (r *productoRepo) ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error) {
	return r.listAmbos(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("activo = true AND stock <= ?", umbral).Order("stock ASC")
	})
}

func (r *productoRepo) ListPorVencer(ctx context.Context, hasta time.Time) ([]model.Producto, error) {
	return r.listAmbos(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("activo = true AND fecha_vencimiento IS NOT NULL AND fecha_vencimiento <= ?", hasta).
			Order("fecha_vencimiento ASC")
	})
}

func (r *productoRepo) listAmbos(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]model.Producto, error) {
	var out []model.Producto
	for _, tipo := range []model.TipoProducto{model.TipoMedicamento, model.TipoGeneral} {
		tabla, _ := tablaProducto(tipo)
		var bases []model.ProductoBase
		if err := scope(r.db.WithContext(ctx).Table(tabla)).Find(&bases).Error; err != nil {
			return nil, apperror.Internal(err)
		}
		for _, b := range bases {
			out = append(out, model.Producto{ProductoBase: b, Tipo: tipo})
		}
	}
	return out, nil
}
