package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrorResponse is the failure side of the response envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldError describes one failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ErrorHandler renders the last error pushed with c.Error as the JSON
// envelope. Raw error text is only exposed outside production.
func ErrorHandler(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(err, isProduction)

		if status >= http.StatusInternalServerError {
			logger.Log.Error("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}

		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery converts panics into the standard 500 envelope
func Recovery(isProduction bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		body := ErrorResponse{Success: false, Message: "Internal server error"}
		if !isProduction {
			body.Details = recovered
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

func renderError(err error, isProduction bool) (int, ErrorResponse) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body := ErrorResponse{Success: false, Message: appErr.Message, Details: appErr.Details}
		if appErr.Kind == apperror.KindInternal && !isProduction && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}
		return appErr.Status(), body
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, ErrorResponse{
			Success: false,
			Message: "Validation failed",
			Details: fieldErrors(validationErrs),
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid request body"}
	}

	body := ErrorResponse{Success: false, Message: "Internal server error"}
	if !isProduction {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}

func fieldErrors(errs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		field := lowerFirst(fe.Field())
		out = append(out, FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: describe(field, fe),
		})
	}
	return out
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid":
		return field + " must be a valid UUID"
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
