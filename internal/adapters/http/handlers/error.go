package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

type ErrorResponse struct {
	Error   string                     `json:"error" example:"order not found"`
	Details []serviceerrors.FieldError `json:"details,omitempty"`
}

// BindingError marks an error returned while decoding or validating a
// request body.
type BindingError struct {
	Err error
}

func (e *BindingError) Error() string {
	return e.Err.Error()
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// HandleError is the single place where errors become HTTP responses.
// Messages of unexpected errors are logged and never sent to the client.
func HandleError(c *gin.Context, err error) {
	var (
		svcErr  *serviceerrors.ServiceError
		bindErr *BindingError
	)
	switch {
	case errors.As(err, &svcErr):
	case errors.As(err, &bindErr):
		svcErr = fromBindingError(bindErr.Err)
	default:
		logger.Error(c.Request.Context(), "Unhandled request error", err, map[string]any{
			"http.method": c.Request.Method,
			"http.route":  c.FullPath(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.AbortWithStatusJSON(mapKindToHTTP(svcErr.Kind), ErrorResponse{
		Error:   svcErr.Message,
		Details: svcErr.Details,
	})
}

func mapKindToHTTP(kind serviceerrors.ErrorKind) int {
	switch kind {
	case serviceerrors.KindNotFound:
		return http.StatusNotFound
	case serviceerrors.KindConflict:
		return http.StatusConflict
	case serviceerrors.KindUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case serviceerrors.KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fromBindingError(err error) *serviceerrors.ServiceError {
	var (
		validationErrs validator.ValidationErrors
		typeErr        *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &validationErrs):
		details := make([]serviceerrors.FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			details = append(details, serviceerrors.FieldError{
				Field:   fieldPath(fe),
				Message: validationMessage(fe),
			})
		}
		return serviceerrors.NewInvalidRequestError("invalid order payload", details...)
	case errors.As(err, &typeErr):
		return serviceerrors.NewInvalidRequestError("malformed JSON body", serviceerrors.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		})
	case errors.Is(err, io.EOF):
		return serviceerrors.NewInvalidRequestError("request body is required")
	default:
		return serviceerrors.NewInvalidRequestError("malformed JSON body")
	}
}

// fieldPath drops the struct name from the validator namespace, so
// "CreateOrderRequest.items[0].quantity" becomes "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s entries", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at most %s entries", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

var jsonFieldNames sync.Once

// UseJSONFieldNames makes gin's validator report fields by their JSON name.
func UseJSONFieldNames() {
	jsonFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	})
}
