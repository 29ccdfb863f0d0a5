package http

import (
	"log/slog"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/http/handlers"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log  *slog.Logger
	Prom *observability.Prom
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	ServiceName    string
	Release        bool
	AllowedOrigins []string
	Cookie         handlers.CookieConfig
	Reset          handlers.PasswordResetConfig

	Accounts    handlers.AccountService
	Sessions    middlewares.SessionResolver
	Resets      handlers.ResetService
	ResetSender handlers.ResetLinkSender
	Activities  handlers.ActivityLister
	Users       handlers.UserStatusUpdater

	Checks []handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.ServiceName == "" {
		d.ServiceName = "recipehub-api"
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(middlewares.DefaultMaxBody))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	sessionAuth := middlewares.NewSessionAuth(d.Sessions, d.Cookie.Name, d.Log)
	r.Use(sessionAuth.Authenticate())
	r.Use(middlewares.RequestLogger(d.Log))

	h := handlers.NewHealthHandler(d.Checks...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.Accounts, d.Cookie, d.Log)
	resetHandler := handlers.NewPasswordResetHandler(d.Resets, d.ResetSender, d.Reset, d.Log)
	activityHandler := handlers.NewActivityHandler(d.Activities, d.Log)
	adminUsers := handlers.NewAdminUsersHandler(d.Users, d.Log)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", middlewares.RequireJSON(), authHandler.SignUp)
		authGroup.POST("/login", middlewares.RequireJSON(), authHandler.Login)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", sessionAuth.RequireAuth(), authHandler.Me)
		authGroup.GET("/activity", sessionAuth.RequireAuth(), activityHandler.Mine)

		// no RequireJSON: both answer in their own JSON shapes for any body
		authGroup.POST("/forgot-password", resetHandler.ForgotPassword)
		authGroup.POST("/reset-password", resetHandler.ResetPassword)
	}

	admin := api.Group("/admin", sessionAuth.RequireAuth(), sessionAuth.RequireRole(user.RoleAdmin))
	{
		admin.PATCH("/users/:id/status", middlewares.RequireJSON(), adminUsers.UpdateStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondNotFound(c, "Route not found")
	})

	return r
}
