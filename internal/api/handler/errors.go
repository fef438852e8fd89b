package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tkao/creatorlens/internal/domain"
)

// respondError maps the pipeline error taxonomy onto HTTP status codes and
// writes a uniform error body.
func respondError(c *gin.Context, err error) {
	class := domain.Classify(err)

	status := http.StatusServiceUnavailable
	switch class {
	case domain.ErrClassValidation:
		status = http.StatusBadRequest
	case domain.ErrClassNotFound:
		status = http.StatusNotFound
	case domain.ErrClassPermanent, domain.ErrClassInsufficientContext:
		status = http.StatusUnprocessableEntity
	case domain.ErrClassQuota:
		status = http.StatusTooManyRequests
	case domain.ErrClassTransient:
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"error": domain.Reason(err),
		"class": string(class),
	})
}
