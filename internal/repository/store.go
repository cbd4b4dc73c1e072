package repository

import (
	"context"
	"errors"

	"hersis/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repos bundles every repository bound to one connection or transaction.
// A service receives a Repos from Store.Execute and uses nothing else for
// the duration of the operation.
type Repos struct {
	Sucursales       SucursalRepository
	Usuarios         UsuarioRepository
	Productos        ProductoRepository
	Cajas            CajaRepository
	Ventas           VentaRepository
	MovimientosStock MovimientoStockRepository
	Logs             LogRepository
	Notificaciones   NotificacionRepository
}

// Store is the unit-of-work boundary. Execute runs fn inside one
// transaction: if fn returns an error nothing it did is visible afterwards.
type Store interface {
	Repos() Repos
	Execute(ctx context.Context, fn func(r Repos) error) error
}

type gormStore struct{ db *gorm.DB }

// NewStore returns the PostgreSQL-backed Store.
func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Repos() Repos { return newRepos(s.db) }

func (s *gormStore) Execute(ctx context.Context, fn func(r Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepos(tx))
	})
}

func newRepos(db *gorm.DB) Repos {
	return Repos{
		Sucursales:       &sucursalRepo{db: db},
		Usuarios:         &usuarioRepo{db: db},
		Productos:        &productoRepo{db: db},
		Cajas:            &cajaRepo{db: db},
		Ventas:           &ventaRepo{db: db},
		MovimientosStock: &movimientoStockRepo{db: db},
		Logs:             &logRepo{db: db},
		Notificaciones:   &notificacionRepo{db: db},
	}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translate maps driver errors onto apperror kinds. Errors that already
// carry a kind pass through untouched.
func translate(err error, entidad string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entidad, id)
	}
	return apperror.Internal(err)
}
