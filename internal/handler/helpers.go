package handler

import (
	"net/http"
	"reflect"

	"hersis/internal/apierror"
	"hersis/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeError hands a service error to middleware.ErrorHandler, which picks
// the status from its kind.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses a required query parameter.
func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(name+" inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// usuarioActual returns the caller's id. JWTAuth already rejected tokens
// whose user_id is not a UUID.
func usuarioActual(c *gin.Context) uuid.UUID {
	id, _ := uuid.Parse(middleware.GetClaims(c).UserID)
	return id
}

// puedeOperar answers 403 when the caller is pinned to another sucursal.
func puedeOperar(c *gin.Context, sucursalID string) bool {
	if !middleware.GetClaims(c).PuedeOperarSucursal(sucursalID) {
		c.JSON(http.StatusForbidden, apierror.New("No puede operar en esta sucursal"))
		return false
	}
	return true
}
