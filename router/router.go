package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/config"
	"github.com/zemen-restaurant/zemen-backend/controllers"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/middlewares"
	"github.com/zemen-restaurant/zemen-backend/services"
)

// Dependencies is everything the HTTP layer needs, built once in main.
type Dependencies struct {
	Config       *config.Config
	Log          *logrus.Logger
	Orders       *services.OrderService
	Reservations *services.ReservationService
	Auth         *services.AuthService
	Payments     controllers.IntentCreator
	Hub          *events.Hub
}

func SetupRouter(d Dependencies) *gin.Engine {
	r := gin.New()
	// both "/submit" and "/submit/" are registered below
	r.RedirectTrailingSlash = false

	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware(d.Log))
	r.Use(middlewares.SecurityHeaders(d.Config.IsProduction()))
	r.Use(middlewares.CORSMiddlewares(d.Config.AllowedOrigins))

	orderCtrl := controllers.NewOrderController(d.Orders)
	reservationCtrl := controllers.NewReservationController(d.Reservations)
	adminCtrl := controllers.NewAdminController(d.Auth)
	paymentCtrl := controllers.NewPaymentController(d.Payments)
	liveFeedCtrl := controllers.NewLiveFeedController(d.Hub, d.Config.AllowedOrigins)

	loginLimiter := middlewares.NewRateLimiter(10, 5)
	paymentLimiter := middlewares.NewRateLimiter(30, 10)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	api := r.Group(strings.TrimSuffix(d.Config.APIPrefix, "/"))

	handle(api, http.MethodPost, "/submit", orderCtrl.SubmitOrder)
	handle(api, http.MethodPost, "/create-intent", paymentLimiter.RateLimit(), paymentCtrl.CreatePaymentIntent)
	handle(api, http.MethodPost, "/reservations", reservationCtrl.CreateReservation)
	handle(api, http.MethodPost, "/admin/login", loginLimiter.RateLimit(), adminCtrl.Login)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := api.Group("")
	admin.Use(middlewares.AuthMiddleware(d.Auth), middlewares.RequireAdmin())

	handle(admin, http.MethodGet, "/profile", adminCtrl.Profile)
	handle(admin, http.MethodPost, "/admin/logout", adminCtrl.Logout)

	handle(admin, http.MethodGet, "/admin/orders", orderCtrl.GetAllOrders)
	handle(admin, http.MethodGet, "/admin/orders/:id", orderCtrl.GetOrderByID)
	handle(admin, http.MethodPatch, "/admin/orders/:id", orderCtrl.UpdateOrderStatus)

	handle(admin, http.MethodGet, "/admin/reservations", reservationCtrl.GetAllReservations)
	handle(admin, http.MethodPatch, "/admin/reservations/:id", reservationCtrl.UpdateReservationStatus)

	// browsers cannot send headers on websocket requests
	ws := api.Group("/admin/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(d.Auth), middlewares.RequireAdmin())
	ws.GET("", liveFeedCtrl.LiveFeed)

	return r
}

// handle registers path with and without a trailing slash. The web frontend
// calls "/submit/" style paths.
func handle(g *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	g.Handle(method, path, handlers...)
	g.Handle(method, path+"/", handlers...)
}
