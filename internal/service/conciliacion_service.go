package service

import (
	"context"

	"hersis/internal/dto"
	"hersis/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// toleranciaConciliacion is the largest drift (1 cent) still reported as consistent.
var toleranciaConciliacion = decimal.New(1, -2)

// ConciliacionService recomputes caja totals from the ventas table instead
// of the running counters.
type ConciliacionService interface {
	RecalcularVentas(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error)
	Auditar(ctx context.Context, cajaID uuid.UUID) (*dto.AuditoriaCajaResponse, error)
}

type conciliacionService struct {
	store repository.Store
}

func NewConciliacionService(store repository.Store) ConciliacionService {
	return &conciliacionService{store: store}
}

func (s *conciliacionService) RecalcularVentas(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, error) {
	r := s.store.Repos()
	if _, err := r.Cajas.FindByID(ctx, cajaID); err != nil {
		return decimal.Zero, err
	}
	return recalcularVentas(ctx, r, cajaID)
}

func (s *conciliacionService) Auditar(ctx context.Context, cajaID uuid.UUID) (*dto.AuditoriaCajaResponse, error) {
	var resp *dto.AuditoriaCajaResponse
	// One unit of work so the caja row and the sum see the same snapshot
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		caja, err := r.Cajas.FindByID(ctx, cajaID)
		if err != nil {
			return err
		}
		calculadas, err := recalcularVentas(ctx, r, cajaID)
		if err != nil {
			return err
		}
		esperado := caja.MontoInicial.Add(calculadas)
		resp = &dto.AuditoriaCajaResponse{
			CajaID:             caja.ID.String(),
			VentasRegistradas:  caja.VentasTotales,
			VentasCalculadas:   calculadas,
			EsperadoRegistrado: caja.MontoEsperado,
			EsperadoCalculado:  esperado,
			Consistente: dentroDeTolerancia(caja.VentasTotales, calculadas) &&
				dentroDeTolerancia(caja.MontoEsperado, esperado),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// recalcularVentas sums the completadas of a caja through r.
func recalcularVentas(ctx context.Context, r repository.Repos, cajaID uuid.UUID) (decimal.Decimal, error) {
	return r.Ventas.SumTotalByCaja(ctx, cajaID)
}

func dentroDeTolerancia(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(toleranciaConciliacion)
}
