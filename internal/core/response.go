// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxJSONBody = 2 << 20

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError writes {"error": message}. Anything that is not an AppError is
// logged and answered with a generic 500.
func JSONError(w http.ResponseWriter, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		InternalServerError(w, err)
		return
	}

	body := make(map[string]any, len(appErr.Details)+1)
	for k, v := range appErr.Details {
		body[k] = v
	}
	body["error"] = appErr.Message

	JSON(w, appErr.StatusCode, body)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, BadRequestError(message))
}

func NotFound(w http.ResponseWriter, message string) {
	JSONError(w, NotFoundError(message))
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	JSON(w, http.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
	})
}

// DecodeJSON reads a size-capped JSON body into dst. An empty body leaves
// dst untouched.
func DecodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "invalid request"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "min":
			messages = append(messages, fmt.Sprintf(
				"%s must be at least %s %s", field, fe.Param(), lengthUnit(fe.Kind())))
		case "max":
			messages = append(messages, fmt.Sprintf(
				"%s must be at most %s %s", field, fe.Param(), lengthUnit(fe.Kind())))
		case "oneof":
			messages = append(messages, fmt.Sprintf(
				"%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return strings.Join(messages, "; ")
}

func lengthUnit(kind reflect.Kind) string {
	if kind == reflect.Slice || kind == reflect.Map || kind == reflect.Array {
		return "items"
	}
	return "characters"
}

// ValidationMessage returns the fixed message of the first failed field
// listed in fixed, or the formatted validation error otherwise.
func ValidationMessage(err error, fixed map[string]string) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			if msg, ok := fixed[fe.Field()]; ok {
				return msg
			}
		}
	}
	return FormatValidationError(err)
}

// NewValidator reports field names by their json tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
