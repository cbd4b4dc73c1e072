package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"hersis/internal/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("registrando venta: %w", apperror.Conflict("no hay caja abierta"))

	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	assert.False(t, apperror.Is(err, apperror.KindNotFound))
}

func TestKindOf_ForeignErrorIsInternal(t *testing.T) {
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	assert.False(t, apperror.Is(nil, apperror.KindInternal))
}

func TestInsufficientStock_CarriesDetail(t *testing.T) {
	id := uuid.New()
	err := apperror.InsufficientStock(id, "medicine", "Ibuprofeno 400mg", 3, 10)

	assert.Equal(t, "Stock insuficiente para Ibuprofeno 400mg. Disponible: 3, Solicitado: 10", err.Error())

	d, ok := apperror.Stock(fmt.Errorf("tx: %w", err))
	require.True(t, ok)
	assert.Equal(t, id, d.ProductoID)
	assert.Equal(t, 3, d.Disponible)
	assert.Equal(t, 10, d.Solicitado)
}

func TestStock_OtherKinds(t *testing.T) {
	_, ok := apperror.Stock(apperror.NotFound("producto", uuid.New()))
	assert.False(t, ok)
}

func TestInternal_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperror.Internal(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, "internal", apperror.KindOf(err).String())
}
