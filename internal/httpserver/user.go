package httpserver

import (
	"net/http"

	"shopmart/internal/gateway/recurly"
	usersvc "shopmart/internal/service/user"
	"github.com/gin-gonic/gin"
)

func registerHandler(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in usersvc.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
			return
		}
		u, err := users.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, "Registered", u)
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, "INVALID_BODY", "email and password required")
			return
		}
		u, access, refresh, err := users.Login(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, "Logged in", gin.H{
			"user":          u,
			"access_token":  access,
			"refresh_token": refresh,
			"expires_in":    users.AccessTTLSeconds(),
		})
	}
}

// billingInfoHandler lists the caller's stored payment methods. A payer who
// never completed a charge has no gateway account yet and gets an empty list.
func billingInfoHandler(billing BillingGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil {
			fail(c, http.StatusUnauthorized, "INVALID_TOKEN", "missing user")
			return
		}
		if u.RecurlyAccountID == "" {
			respondData(c, http.StatusOK, "Billing info", []recurly.BillingInfo{})
			return
		}
		infos, err := billing.ListBillingInfo(c.Request.Context(), u.RecurlyAccountID)
		if err != nil {
			fail(c, http.StatusBadGateway, "GATEWAY_FAULT", "payment gateway unavailable")
			return
		}
		if infos == nil {
			infos = []recurly.BillingInfo{}
		}
		respondData(c, http.StatusOK, "Billing info", infos)
	}
}
