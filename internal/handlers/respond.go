package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxlink/ivr-dialer-backend/internal/models"
)

// respondServiceError maps service errors to HTTP responses. Validation
// problems are 400, missing or foreign-owned entities are 404, a collapsed
// live call is 409, everything else is a 500 with the fallback message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
		return
	}

	var nferr *models.NotFoundError
	if errors.As(err, &nferr) {
		c.JSON(http.StatusNotFound, gin.H{"error": nferr.Error()})
		return
	}

	var fault *models.ExecutionFault
	if errors.As(err, &fault) {
		c.JSON(http.StatusConflict, gin.H{"error": fault.Error(), "call_id": fault.CallID})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
}
