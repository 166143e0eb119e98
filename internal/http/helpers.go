package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/catalog/internal/access"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/loans"
	"github.com/mrlokans/catalog/internal/validation"
)

// ErrorResponse is the error body for everything except field validation,
// which uses validation.ErrorResponse.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found", Code: "not_found"})
}

// respondInternalError logs err and hides it from the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError maps catalog and loan errors onto status codes:
// 403 unauthorized, 404 missing, 422 invalid, 500 anything else.
func respondServiceError(c *gin.Context, err error, resource string) {
	if verr, ok := loans.IsValidationError(err); ok {
		fields := make([]validation.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, validation.FieldError{
				Field:   f.Field,
				Rule:    string(verr.Kind),
				Message: f.Message,
			})
		}
		validation.Failed(c, string(verr.Kind), verr.Error(), fields)
		return
	}

	switch {
	case errors.Is(err, access.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: access.ErrUnauthorized.Error(), Code: "forbidden"})
	case errors.Is(err, loans.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		respondNotFound(c, resource)
	case errors.Is(err, catalog.ErrInvalidReference), errors.Is(err, catalog.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "invalid"})
	default:
		respondInternalError(c, err, resource)
	}
}

// parseIDParam responds with 400 and returns false when the parameter is
// not an unsigned integer.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func currentUser(c *gin.Context) *entities.User {
	return auth.CurrentUser(c)
}
