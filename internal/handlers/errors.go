package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventnest/internal/helpers"
	"github.com/joshua-takyi/eventnest/internal/models"
	"github.com/joshua-takyi/eventnest/internal/services"
)

// respondError maps service and store errors onto status codes.
// resource names the entity in not-found and bad-id messages.
func respondError(c *gin.Context, resource string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(verr.Error()))
	case errors.Is(err, models.ErrInvalidID):
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Invalid "+resource+" ID"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse(resource+" not found"))
	case errors.Is(err, models.ErrSoldOut):
		c.JSON(http.StatusBadRequest, models.ErrorResponse("Event is sold out"))
	case errors.Is(err, models.ErrConflict), errors.Is(err, services.ErrNotAbandonable):
		c.JSON(http.StatusConflict, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrNoWallet), errors.Is(err, helpers.ErrInvalidToken), errors.Is(err, services.ErrBadSignature):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, models.ErrorResponse(err.Error()))
	case errors.Is(err, services.ErrQuoteExpired):
		c.JSON(http.StatusGone, models.ErrorResponse("quote expired"))
	case errors.Is(err, services.ErrQuoteFailed), errors.Is(err, services.ErrShiftFailed), errors.Is(err, services.ErrExchange):
		c.JSON(http.StatusBadGateway, models.ErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse("Internal server error"))
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
