package payloads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads exactly one JSON object from r into dst. Unknown fields and
// values of the wrong type are rejected.
func Decode(r io.Reader, dst interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperrors.ErrInvalidPayload.WithMessage("%s", describeDecodeError(err))
	}
	if dec.More() {
		return apperrors.ErrInvalidPayload.WithMessage("request body must contain a single JSON object")
	}
	return nil
}

func describeDecodeError(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "request body is not valid JSON"
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("request body is not valid JSON (at offset %d)", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Sprintf("request body must be a JSON %s", typeErr.Type)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		// decimal and other custom unmarshalers
		return err.Error()
	}
}

// validateStruct runs the struct tags and reports the first violation.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.ErrInvalidField.WithMessage("%s", err.Error())
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.ErrInvalidField.WithMessage("%s is required", fe.Field())
	case "max":
		return apperrors.ErrInvalidField.WithMessage("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return apperrors.ErrInvalidField.WithMessage("%s must be a valid email address", fe.Field())
	case "oneof":
		return apperrors.ErrInvalidField.WithMessage("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return apperrors.ErrInvalidField.WithMessage("%s is invalid", fe.Field())
	}
}
