// Package apperror defines the error kinds returned by services and
// repositories. Handlers translate a Kind into an HTTP status; nothing below
// the handler layer knows about transport.
package apperror

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidArgument
	KindInsufficientStock
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInsufficientStock:
		return "insufficient_stock"
	default:
		return "internal"
	}
}

// Error is the typed error carried through the service layer.
type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StockDetail is attached to KindInsufficientStock errors.
type StockDetail struct {
	ProductoID   uuid.UUID `json:"producto_id"`
	TipoProducto string    `json:"tipo_producto"`
	Disponible   int       `json:"disponible"`
	Solicitado   int       `json:"solicitado"`
}

func NotFound(entidad string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v no encontrado", entidad, id)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// InsufficientStock reports that solicitado units of a product exceed the
// disponible stock.
func InsufficientStock(productoID uuid.UUID, tipo, nombre string, disponible, solicitado int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("Stock insuficiente para %s. Disponible: %d, Solicitado: %d", nombre, disponible, solicitado),
		Details: StockDetail{
			ProductoID:   productoID,
			TipoProducto: tipo,
			Disponible:   disponible,
			Solicitado:   solicitado,
		},
	}
}

// Internal wraps a storage or infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "error interno", Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Stock extracts the stock detail of an insufficient-stock error.
func Stock(err error) (StockDetail, bool) {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind != KindInsufficientStock {
		return StockDetail{}, false
	}
	d, ok := appErr.Details.(StockDetail)
	return d, ok
}
