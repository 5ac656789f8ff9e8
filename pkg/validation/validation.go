// Package validation binds request bodies and turns binding failures into
// VALIDATION_ERROR responses with field-level details.
package validation

import (
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"travelhub/pkg/errors"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonTagName)
		_ = v.RegisterValidation("objectid", isObjectID)
	}
}

// isObjectID accepts exactly 24 hex digits, without a 0x prefix
func isObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

func jsonTagName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// BindJSON decodes and validates the request body into dst
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return FromBindingError(err)
	}
	return nil
}

// FromBindingError converts a gin binding error into an AppError
func FromBindingError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make([]errors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, errors.FieldError{
				Field: fieldPath(fe.Namespace()),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
		return errors.NewValidation("validation failed", fields)
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return errors.NewValidation("validation failed", []errors.FieldError{{
			Field: typeErr.Field,
			Rule:  "type",
			Param: typeErr.Type.String(),
		}})
	}

	return errors.NewValidation("invalid request body", nil)
}

// fieldPath drops the root struct name from a validator namespace
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// Struct validates v against its binding tags outside of a request,
// e.g. after a partial update has been merged onto a stored document
func Struct(v interface{}) error {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return FromBindingError(err)
	}
	return nil
}
