package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 503 responses caused by storage contention.
const retryAfterSeconds = 1

type errorResponse struct {
	Error  string        `json:"error"`
	Reason domain.Reason `json:"reason,omitempty"`
}

// writeError renders a service error. Rejections carry their reason so the
// client can show a precise message.
func writeError(c *gin.Context, err error) {
	if reason, ok := domain.ReasonOf(err); ok {
		status := http.StatusConflict
		if reason == domain.ReasonNoSuchFlight {
			status = http.StatusNotFound
		}
		c.JSON(status, errorResponse{Error: err.Error(), Reason: reason})
		return
	}

	switch {
	case errors.Is(err, domain.ErrPassengerNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: domain.ErrUnavailable.Error()})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
