package httpserver

import (
	"errors"
	"net/http"

	"shopmart/internal/domain"
	usersvc "shopmart/internal/service/user"
	"github.com/gin-gonic/gin"
)

func respondData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"message": message, "data": data})
}

// respondError maps service errors onto stable HTTP codes so clients can
// branch without parsing messages.
func respondError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError
	var declined *domain.PaymentDeclinedError
	var fault *domain.GatewayFaultError

	switch {
	case errors.Is(err, domain.ErrMissingFields):
		fail(c, http.StatusBadRequest, "MISSING_FIELDS", err.Error())
	case errors.Is(err, domain.ErrInvalidOrderID):
		fail(c, http.StatusBadRequest, "INVALID_ORDER_ID", err.Error())
	case errors.Is(err, domain.ErrPayerNotFound):
		fail(c, http.StatusNotFound, "PAYER_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		fail(c, http.StatusNotFound, "EMPTY_CART", err.Error())
	case errors.Is(err, domain.ErrOrderNotPayable):
		fail(c, http.StatusNotFound, "ORDER_NOT_PAYABLE", err.Error())
	case errors.As(err, &stockErr):
		fail(c, http.StatusBadRequest, "INSUFFICIENT_STOCK", stockErr.Error())
	case errors.As(err, &declined):
		fail(c, http.StatusBadRequest, "PAYMENT_DECLINED", declined.Error())
	case errors.As(err, &fault):
		fail(c, http.StatusBadGateway, "GATEWAY_FAULT", "payment gateway unavailable")
	case errors.Is(err, usersvc.ErrEmailTaken):
		fail(c, http.StatusConflict, "EMAIL_TAKEN", err.Error())
	case errors.Is(err, usersvc.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, usersvc.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		fail(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"message": message, "code": code})
}
