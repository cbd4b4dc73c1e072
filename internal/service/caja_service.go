package service

import (
	"context"
	"fmt"
	"time"

	"hersis/internal/apperror"
	"hersis/internal/dto"
	"hersis/internal/model"
	"hersis/internal/repository"
	"hersis/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339

// ReporteEnqueuer schedules the close report of a caja. *worker.Dispatcher
// implements it.
type ReporteEnqueuer interface {
	EnqueueCierreCaja(ctx context.Context, payload worker.CierreCajaPayload) error
}

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, usuarioID, cajaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	// ObtenerActiva returns NotFound when the sucursal has no abierta caja.
	ObtenerActiva(ctx context.Context, sucursalID uuid.UUID) (*dto.CajaResponse, error)
	Obtener(ctx context.Context, cajaID uuid.UUID) (*dto.CajaResponse, error)
	ListarPorSucursal(ctx context.Context, sucursalID uuid.UUID) ([]dto.CajaResponse, error)
	Resumen(ctx context.Context, cajaID uuid.UUID) (*dto.ResumenCajaResponse, error)
	Ventas(ctx context.Context, cajaID uuid.UUID) (*dto.VentasCajaResponse, error)
	SincronizarTotales(ctx context.Context, usuarioID, cajaID uuid.UUID) (*dto.CajaResponse, error)
	ActualizarObservaciones(ctx context.Context, usuarioID, cajaID uuid.UUID, observaciones string) (*dto.CajaResponse, error)
	// Eliminar only accepts cerradas.
	Eliminar(ctx context.Context, usuarioID, cajaID uuid.UUID) error
}

type cajaService struct {
	store     repository.Store
	auditoria Auditoria
	reportes  ReporteEnqueuer
}

// NewCajaService builds the service. reportes may be nil, in which case no
// close report is scheduled.
func NewCajaService(store repository.Store, auditoria Auditoria, reportes ReporteEnqueuer) CajaService {
	return &cajaService{store: store, auditoria: auditoria, reportes: reportes}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// One abierta caja per sucursal: the partial unique index (or the memory
// store's equivalent check) turns a concurrent second open into Conflict.

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	sucursalID, err := uuid.Parse(req.SucursalID)
	if err != nil {
		return nil, apperror.InvalidArgument("sucursal_id inválido")
	}
	if req.MontoInicial.IsNegative() {
		return nil, apperror.InvalidArgument("el monto inicial no puede ser negativo")
	}

	var caja *model.Caja
	err = s.store.Execute(ctx, func(r repository.Repos) error {
		if err := existeSucursalYUsuario(ctx, r, sucursalID, usuarioID); err != nil {
			return err
		}
		monto := req.MontoInicial.Round(2)
		caja = &model.Caja{
			SucursalID:        sucursalID,
			UsuarioAperturaID: usuarioID,
			FechaApertura:     time.Now(),
			MontoInicial:      monto,
			VentasTotales:     decimal.Zero,
			MontoEsperado:     monto,
			Estado:            model.CajaAbierta,
			Observaciones:     req.Observaciones,
			Version:           1,
		}
		return r.Cajas.Create(ctx, caja)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("caja_id", caja.ID.String()).
		Str("sucursal_id", sucursalID.String()).
		Str("monto_inicial", caja.MontoInicial.StringFixed(2)).
		Msg("caja abierta")
	s.auditoria.Append(ctx, model.AccionCrear, "caja",
		fmt.Sprintf("Apertura de caja %s con monto inicial %s", caja.ID, caja.MontoInicial.StringFixed(2)), usuarioID)
	return cajaToResponse(caja), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// ventas_totales is recomputed from the completadas, not taken from the
// running counter; diferencia = monto_final − monto_esperado.

func (s *cajaService) Cerrar(ctx context.Context, usuarioID, cajaID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoFinal.IsNegative() {
		return nil, apperror.InvalidArgument("el monto final no puede ser negativo")
	}

	var caja *model.Caja
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		var err error
		caja, err = r.Cajas.FindByIDForUpdate(ctx, cajaID)
		if err != nil {
			return err
		}
		if !caja.Abierta() {
			return apperror.Conflict("la caja ya está cerrada")
		}
		if ok, err := r.Usuarios.Exists(ctx, usuarioID); err != nil {
			return err
		} else if !ok {
			return apperror.NotFound("usuario", usuarioID)
		}

		ventas, err := recalcularVentas(ctx, r, caja.ID)
		if err != nil {
			return err
		}
		if !ventas.Equal(caja.VentasTotales) {
			log.Warn().
				Str("caja_id", caja.ID.String()).
				Str("registradas", caja.VentasTotales.StringFixed(2)).
				Str("calculadas", ventas.StringFixed(2)).
				Msg("caja: running total drifted, using recomputed value")
		}

		final := req.MontoFinal.Round(2)
		now := time.Now()
		caja.VentasTotales = ventas
		caja.MontoEsperado = caja.MontoInicial.Add(ventas)
		diferencia := final.Sub(caja.MontoEsperado)
		caja.MontoFinal = &final
		caja.Diferencia = &diferencia
		caja.Estado = model.CajaCerrada
		caja.FechaCierre = &now
		caja.UsuarioCierreID = &usuarioID
		if req.Observaciones != nil {
			caja.Observaciones = req.Observaciones
		}
		return r.Cajas.Update(ctx, caja)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("caja_id", caja.ID.String()).
		Str("esperado", caja.MontoEsperado.StringFixed(2)).
		Str("final", caja.MontoFinal.StringFixed(2)).
		Str("diferencia", caja.Diferencia.StringFixed(2)).
		Msg("caja cerrada")
	s.auditoria.Append(ctx, model.AccionActualizar, "caja",
		fmt.Sprintf("Cierre de caja %s. Esperado %s, contado %s, diferencia %s", caja.ID,
			caja.MontoEsperado.StringFixed(2), caja.MontoFinal.StringFixed(2), caja.Diferencia.StringFixed(2)), usuarioID)

	if s.reportes != nil {
		if err := s.reportes.EnqueueCierreCaja(ctx, worker.CierreCajaPayload{CajaID: caja.ID}); err != nil {
			log.Warn().Err(err).Str("caja_id", caja.ID.String()).Msg("caja: could not enqueue close report")
		}
	}
	return cajaToResponse(caja), nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) ObtenerActiva(ctx context.Context, sucursalID uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.store.Repos().Cajas.FindAbiertaBySucursal(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) Obtener(ctx context.Context, cajaID uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.store.Repos().Cajas.FindByID(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) ListarPorSucursal(ctx context.Context, sucursalID uuid.UUID) ([]dto.CajaResponse, error) {
	cajas, err := s.store.Repos().Cajas.ListBySucursal(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CajaResponse, 0, len(cajas))
	for i := range cajas {
		out = append(out, *cajaToResponse(&cajas[i]))
	}
	return out, nil
}

func (s *cajaService) Resumen(ctx context.Context, cajaID uuid.UUID) (*dto.ResumenCajaResponse, error) {
	r := s.store.Repos()
	caja, err := r.Cajas.FindByID(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	cantidad, err := r.Ventas.CountByCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ResumenCajaResponse{Caja: *cajaToResponse(caja), CantidadVentas: cantidad}
	if caja.Diferencia != nil {
		pct := porcentajeDiferencia(*caja.Diferencia, caja.MontoEsperado)
		resp.Desvio = &dto.DesvioResponse{
			Monto:         *caja.Diferencia,
			Porcentaje:    pct,
			Clasificacion: clasificarDesvio(pct),
		}
	}
	return resp, nil
}

func (s *cajaService) Ventas(ctx context.Context, cajaID uuid.UUID) (*dto.VentasCajaResponse, error) {
	r := s.store.Repos()
	if _, err := r.Cajas.FindByID(ctx, cajaID); err != nil {
		return nil, err
	}
	ventas, err := r.Ventas.ListByCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	resp := &dto.VentasCajaResponse{
		CajaID:   cajaID.String(),
		Cantidad: len(ventas),
		Monto:    decimal.Zero,
		Ventas:   make([]dto.VentaResponse, 0, len(ventas)),
	}
	for i := range ventas {
		resp.Monto = resp.Monto.Add(ventas[i].Total)
		resp.Ventas = append(resp.Ventas, *ventaToResponse(&ventas[i]))
	}
	return resp, nil
}

// ── Mantenimiento ─────────────────────────────────────────────────────────────

func (s *cajaService) SincronizarTotales(ctx context.Context, usuarioID, cajaID uuid.UUID) (*dto.CajaResponse, error) {
	var caja *model.Caja
	var anterior decimal.Decimal
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		var err error
		caja, err = r.Cajas.FindByIDForUpdate(ctx, cajaID)
		if err != nil {
			return err
		}
		if !caja.Abierta() {
			return apperror.Conflict("no se pueden sincronizar los totales de una caja cerrada")
		}
		ventas, err := recalcularVentas(ctx, r, caja.ID)
		if err != nil {
			return err
		}
		anterior = caja.VentasTotales
		caja.VentasTotales = ventas
		caja.MontoEsperado = caja.MontoInicial.Add(ventas)
		return r.Cajas.Update(ctx, caja)
	})
	if err != nil {
		return nil, err
	}

	if !anterior.Equal(caja.VentasTotales) {
		s.auditoria.Append(ctx, model.AccionActualizar, "caja",
			fmt.Sprintf("Sincronización de caja %s: ventas %s -> %s", caja.ID,
				anterior.StringFixed(2), caja.VentasTotales.StringFixed(2)), usuarioID)
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) ActualizarObservaciones(ctx context.Context, usuarioID, cajaID uuid.UUID, observaciones string) (*dto.CajaResponse, error) {
	var caja *model.Caja
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		var err error
		caja, err = r.Cajas.FindByIDForUpdate(ctx, cajaID)
		if err != nil {
			return err
		}
		caja.Observaciones = &observaciones
		return r.Cajas.Update(ctx, caja)
	})
	if err != nil {
		return nil, err
	}
	s.auditoria.Append(ctx, model.AccionActualizar, "caja",
		fmt.Sprintf("Observaciones de caja %s actualizadas", caja.ID), usuarioID)
	return cajaToResponse(caja), nil
}

func (s *cajaService) Eliminar(ctx context.Context, usuarioID, cajaID uuid.UUID) error {
	err := s.store.Execute(ctx, func(r repository.Repos) error {
		caja, err := r.Cajas.FindByIDForUpdate(ctx, cajaID)
		if err != nil {
			return err
		}
		if caja.Abierta() {
			return apperror.Conflict("no se puede eliminar una caja abierta")
		}
		return r.Cajas.Delete(ctx, cajaID)
	})
	if err != nil {
		return err
	}
	log.Info().Str("caja_id", cajaID.String()).Msg("caja eliminada")
	s.auditoria.Append(ctx, model.AccionEliminar, "caja", fmt.Sprintf("Caja %s eliminada", cajaID), usuarioID)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// aplicarDelta adds monto to the running totals of an abierta caja.
// The repository applies it in one statement so concurrent ventas never
// overwrite each other.
func aplicarDelta(ctx context.Context, r repository.Repos, cajaID uuid.UUID, monto decimal.Decimal) error {
	return r.Cajas.ApplyDelta(ctx, cajaID, monto)
}

func existeSucursalYUsuario(ctx context.Context, r repository.Repos, sucursalID, usuarioID uuid.UUID) error {
	ok, err := r.Sucursales.Exists(ctx, sucursalID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("sucursal", sucursalID)
	}
	ok, err = r.Usuarios.Exists(ctx, usuarioID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NotFound("usuario", usuarioID)
	}
	return nil
}

// porcentajeDiferencia returns diferencia / esperado × 100 with 2 decimals,
// or 0 when nothing was expected.
func porcentajeDiferencia(diferencia, esperado decimal.Decimal) decimal.Decimal {
	if esperado.IsZero() {
		return decimal.Zero
	}
	return diferencia.Div(esperado).Mul(decimal.NewFromInt(100)).Round(2)
}

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "advertencia"
	default:
		return "critico"
	}
}

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:                c.ID.String(),
		SucursalID:        c.SucursalID.String(),
		UsuarioAperturaID: c.UsuarioAperturaID.String(),
		FechaApertura:     c.FechaApertura.Format(timeLayout),
		MontoInicial:      c.MontoInicial,
		VentasTotales:     c.VentasTotales,
		MontoEsperado:     c.MontoEsperado,
		MontoFinal:        c.MontoFinal,
		Diferencia:        c.Diferencia,
		Estado:            string(c.Estado),
		Observaciones:     c.Observaciones,
	}
	if c.UsuarioCierreID != nil {
		id := c.UsuarioCierreID.String()
		resp.UsuarioCierreID = &id
	}
	if c.FechaCierre != nil {
		t := c.FechaCierre.Format(timeLayout)
		resp.FechaCierre = &t
	}
	return resp
}
