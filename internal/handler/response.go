package handler

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/Baaaki/freelance-market/internal/apperror"
	"github.com/Baaaki/freelance-market/internal/middleware"
	"github.com/Baaaki/freelance-market/internal/models"
	"github.com/Baaaki/freelance-market/internal/policy"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Response is the success envelope every endpoint returns
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func init() {
	// Report validation failures under their JSON names and teach the
	// validator the project categories
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("project_category", func(fl validator.FieldLevel) bool {
			return models.ProjectCategory(fl.Field().String()).Valid()
		})
	}
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// bindJSON binds and validates the body; on failure the error is queued
// for the error middleware and false is returned
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(bindError(err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be empty
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}

func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		_ = c.Error(bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validationErrs
	}
	return apperror.BadRequest("Invalid request body").WithDetails(err.Error())
}

// paramUUID parses a path parameter as UUID
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid " + name))
		return uuid.Nil, false
	}
	return id, true
}

// actorFrom returns the authenticated caller; routes using it sit behind AuthMiddleware
func actorFrom(c *gin.Context) (policy.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		_ = c.Error(apperror.Unauthorized("Authentication required"))
	}
	return actor, ok
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain dates
func parseDate(field, s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.BadRequest(field + " must be a valid date")
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
