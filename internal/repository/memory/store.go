// Package memory is an in-process repository.Store used by the unit tests
// and by STORE_DRIVER=memory. Execute holds a single mutex for the whole
// unit of work and restores a snapshot when fn fails, which gives the same
// all-or-nothing and serialization guarantees the PostgreSQL store gets from
// transactions and row locks.
package memory

import (
	"context"
	"sync"

	"hersis/internal/model"
	"hersis/internal/repository"

	"github.com/google/uuid"
)

type productoKey struct {
	tipo model.TipoProducto
	id   uuid.UUID
}

type state struct {
	sucursales     map[uuid.UUID]model.Sucursal
	usuarios       map[uuid.UUID]model.Usuario
	productos      map[productoKey]model.ProductoBase
	cajas          map[uuid.UUID]model.Caja
	ventas         map[uuid.UUID]model.Venta
	movimientos    []model.MovimientoStock
	logs           []model.LogAuditoria
	notificaciones []model.Notificacion
}

func newState() *state {
	return &state{
		sucursales: make(map[uuid.UUID]model.Sucursal),
		usuarios:   make(map[uuid.UUID]model.Usuario),
		productos:  make(map[productoKey]model.ProductoBase),
		cajas:      make(map[uuid.UUID]model.Caja),
		ventas:     make(map[uuid.UUID]model.Venta),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.sucursales {
		c.sucursales[k] = v
	}
	for k, v := range s.usuarios {
		c.usuarios[k] = v
	}
	for k, v := range s.productos {
		c.productos[k] = v
	}
	for k, v := range s.cajas {
		c.cajas[k] = v
	}
	for k, v := range s.ventas {
		v.Detalles = append([]model.DetalleVenta(nil), v.Detalles...)
		c.ventas[k] = v
	}
	c.movimientos = append(c.movimientos, s.movimientos...)
	c.logs = append(c.logs, s.logs...)
	c.notificaciones = append(c.notificaciones, s.notificaciones...)
	return c
}

// Store implements repository.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store { return &Store{st: newState()} }

var _ repository.Store = (*Store)(nil)

// Repos returns repositories that lock per call.
func (s *Store) Repos() repository.Repos { return s.repos(false) }

func (s *Store) Execute(ctx context.Context, fn func(r repository.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
	}()

	if err = fn(s.repos(true)); err != nil {
		s.st = snapshot
	}
	return err
}

func (s *Store) repos(inTx bool) repository.Repos {
	b := base{s: s, inTx: inTx}
	return repository.Repos{
		Sucursales:       sucursalRepo{b},
		Usuarios:         usuarioRepo{b},
		Productos:        productoRepo{b},
		Cajas:            cajaRepo{b},
		Ventas:           ventaRepo{b},
		MovimientosStock: movimientoStockRepo{b},
		Logs:             logRepo{b},
		Notificaciones:   notificacionRepo{b},
	}
}

// base gives every repo access to the current state. Inside Execute the
// store mutex is already held, so lock is a no-op there.
type base struct {
	s    *Store
	inTx bool
}

func (b base) lock() func() {
	if b.inTx {
		return func() {}
	}
	b.s.mu.Lock()
	return b.s.mu.Unlock
}

func (b base) state() *state { return b.s.st }

// ── Seeding ──────────────────────────────────────────────────────────────────
// Catalog, branch and user maintenance live outside the core; these helpers
// populate the store for tests and for the memory driver demo data.

func (s *Store) PutSucursal(v model.Sucursal) model.Sucursal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.st.sucursales[v.ID] = v
	return v
}

func (s *Store) PutUsuario(v model.Usuario) model.Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.st.usuarios[v.ID] = v
	return v
}

func (s *Store) PutProducto(tipo model.TipoProducto, v model.ProductoBase) model.Producto {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	s.st.productos[productoKey{tipo, v.ID}] = v
	return model.Producto{ProductoBase: v, Tipo: tipo}
}

// Logs returns a copy of the audit entries written so far.
func (s *Store) Logs() []model.LogAuditoria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.LogAuditoria(nil), s.st.logs...)
}

// Movimientos returns a copy of the stock movements written so far.
func (s *Store) Movimientos() []model.MovimientoStock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.MovimientoStock(nil), s.st.movimientos...)
}

// Notificaciones returns a copy of the persisted notifications.
func (s *Store) Notificaciones() []model.Notificacion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notificacion(nil), s.st.notificaciones...)
}
