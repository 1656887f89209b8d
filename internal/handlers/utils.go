package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogerrors "github.com/amaumene/gocatalog/internal/errors"
)

type errorBody struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

var errorNames = map[int]string{
	http.StatusBadRequest:          "ValidationError",
	http.StatusUnauthorized:        "UnauthorizedError",
	http.StatusForbidden:           "ForbiddenError",
	http.StatusNotFound:            "NotFoundError",
	http.StatusConflict:            "ConflictError",
	http.StatusInternalServerError: "ApplicationError",
}

// AbortWithError writes the error envelope {data: null, error: {...}} and stops the chain.
func AbortWithError(c *gin.Context, status int, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	name, ok := errorNames[status]
	if !ok {
		name = "ApplicationError"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"data":  nil,
		"error": errorBody{Status: status, Name: name, Message: message, Details: details},
	})
}

// statusOf maps a catalog error to its HTTP status.
func statusOf(err error) int {
	switch catalogerrors.TypeOf(err) {
	case catalogerrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case catalogerrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case catalogerrors.ErrorTypeConflict:
		return http.StatusConflict
	case catalogerrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	var details map[string]any
	if field := catalogerrors.FieldOf(err); field != "" {
		details = map[string]any{"field": field}
	}

	message := err.Error()
	var ce *catalogerrors.CatalogError
	if errors.As(err, &ce) {
		message = ce.Message
	}
	if status == http.StatusInternalServerError {
		h.services.Logger.Errorf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "Internal Server Error"
	}
	AbortWithError(c, status, message, details)
}
