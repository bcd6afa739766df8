package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/foodflow/backend/internal/middleware"
	"github.com/pageza/foodflow/backend/internal/service"
)

// currentUser returns the authenticated user or answers 401
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses the :name path parameter as a UUID or answers 400
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, def when absent or invalid
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// queryDate reads a YYYY-MM-DD query parameter, def when absent. An invalid
// date answers 400.
func queryDate(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	date, err := service.ParseDate(name, raw)
	if err != nil {
		respondError(c, err)
		return time.Time{}, false
	}
	return date, true
}

// bindJSON decodes the body or answers 400
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// respondError maps service errors to HTTP statuses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *gin.Context, err error) {
	var validation *service.ValidationError
	var duplicate *service.DuplicateProductError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, gin.H{"error": duplicate.Error(), "existing": duplicate.Existing})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNothingToComplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
