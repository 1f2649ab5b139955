package httpserver

import (
	"net/http"
	"strconv"
	"time"

	ordersvc "shopmart/internal/service/order"
	"github.com/gin-gonic/gin"
)

func createOrderHandler(orders OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ordersvc.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			fail(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
			return
		}
		res, err := orders.Create(c.Request.Context(), currentUserID(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, "Order created", res)
	}
}

type payRequest struct {
	TokenID string `json:"token_id"`
}

func payOrderHandler(orders OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in payRequest
		// The body is optional: a payer with stored billing info sends none.
		_ = c.ShouldBindJSON(&in)

		res, err := orders.Pay(c.Request.Context(), currentUserID(c), c.Param("order_id"), in.TokenID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, "Payment settled", res)
	}
}

func listOrdersHandler(orders OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		in := ordersvc.ListInput{
			Status: c.Query("status"),
			Page:   queryInt(c, "page", 1),
			Limit:  queryInt(c, "limit", 10),
		}
		if from, ok := queryTime(c, "from"); ok {
			in.From = &from
		}
		if to, ok := queryTime(c, "to"); ok {
			in.To = &to
		}

		list, pagination, err := orders.List(c.Request.Context(), currentUserID(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, "Orders", gin.H{"orders": list, "pagination": pagination})
	}
}

func getOrderHandler(orders OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := orders.Get(c.Request.Context(), currentUserID(c), c.Param("order_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, "Order", detail)
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
