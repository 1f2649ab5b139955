package httpserver

import (
	"context"
	"log"

	"shopmart/internal/domain"
	"shopmart/internal/gateway/recurly"
	"shopmart/internal/metrics"
	ordersvc "shopmart/internal/service/order"
	usersvc "shopmart/internal/service/user"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderService is the order lifecycle surface the handlers call.
type OrderService interface {
	Create(ctx context.Context, userID string, in ordersvc.CreateInput) (*ordersvc.CreateResult, error)
	Pay(ctx context.Context, userID, orderID, tokenID string) (*ordersvc.PayResult, error)
	List(ctx context.Context, userID string, in ordersvc.ListInput) ([]domain.Order, *ordersvc.Pagination, error)
	Get(ctx context.Context, userID, orderID string) (*ordersvc.Detail, error)
}

// UserService handles registration, login and token resolution.
type UserService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	AccessTTLSeconds() int
}

// BillingGateway exposes the stored payment methods of a gateway account.
type BillingGateway interface {
	ListBillingInfo(ctx context.Context, accountCode string) ([]recurly.BillingInfo, error)
}

// Deps carries the services the router depends on.
type Deps struct {
	Orders  OrderService
	Users   UserService
	Billing BillingGateway
	Metrics *metrics.Metrics
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api")
	api.POST("/register", registerHandler(deps.Users))
	api.POST("/login", loginHandler(deps.Users))

	authed := api.Group("", authMiddleware(deps.Users))
	authed.POST("/orders", createOrderHandler(deps.Orders))
	authed.GET("/orders", listOrdersHandler(deps.Orders))
	authed.GET("/orders/:order_id", getOrderHandler(deps.Orders))
	authed.POST("/orders/:order_id/pay", payOrderHandler(deps.Orders))
	authed.GET("/user/billing-info", billingInfoHandler(deps.Billing))

	return router
}
