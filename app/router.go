// Package app wires the HTTP routes, middleware and HTML templates
package app

import (
	"bitwise74/diapredict/app/predict"
	"bitwise74/diapredict/app/record"
	"bitwise74/diapredict/app/root"
	"bitwise74/diapredict/app/user"
	"bitwise74/diapredict/internal"
	"bitwise74/diapredict/internal/metrics"
	"bitwise74/diapredict/internal/view"
	"bitwise74/diapredict/pkg/middleware"
	"bitwise74/diapredict/pkg/session"
	"embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxFormSize = 64 << 10

//go:embed templates/*.html
var templates embed.FS

type App struct {
	Router *gin.Engine

	limiter *middleware.RateLimiter
}

func NewRouter(d *internal.Deps) (*App, error) {
	cfg := d.Config

	router := gin.New()
	a := &App{Router: router}

	if len(cfg.Host.CORS) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	sessions := session.NewManager(cfg.Security.SecretKey, cfg.Security.SessionMaxAge, cfg.Host.SSLEnabled)

	router.Use(
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == http.MethodHead || c.Request.URL.Path == "/metrics"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v, ok := session.User(c); ok {
					fields = append(fields, zap.String("username", v))
				}

				return fields
			},
		}),
		sessions.Middleware(),
	)

	// Paths are matched exactly, anything else gets the 404 page
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	tmpl, err := view.Templates(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates, %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	a.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})

	rateLimiter := a.limiter.Handler()
	bodyLimit := middleware.BodySizeLimiter(maxFormSize)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileConfig{
		Enabled:     cfg.Turnstile.Enabled,
		SecretToken: cfg.Turnstile.SecretToken,
		VerifyURL:   cfg.Turnstile.VerifyURL,
	})

	// GET /			-> Landing page
	router.GET("/", root.Index)

	// GET /healthz		-> Used to check if the server is alive
	router.GET("/healthz", root.Heartbeat)
	router.HEAD("/healthz", root.Heartbeat)

	// GET /metrics		-> Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// GET,POST /register	-> Registers a new user and mails a verification link
	router.GET("/register", func(c *gin.Context) { user.RegisterPage(c, d) })
	router.POST("/register", rateLimiter, bodyLimit, turnstile, func(c *gin.Context) { user.UserRegister(c, d) })

	// GET /verify_email/:token	-> Verifies a new user
	router.GET("/verify_email/:token", func(c *gin.Context) { user.UserVerify(c, d) })

	// GET,POST /login	-> Logs in a user
	router.GET("/login", user.LoginPage)
	router.POST("/login", rateLimiter, bodyLimit, func(c *gin.Context) { user.UserLogin(c, d) })

	// GET /logout		-> Logs out the current user
	router.GET("/logout", user.UserLogout)

	// GET /profile		-> Prediction history of the current user
	router.GET("/profile",
		middleware.RequireSession("You need to log in to view this page."),
		func(c *gin.Context) { record.Profile(c, d) })

	p := router.Group("/predict", middleware.RequireSession("You need to log in to use this feature."))
	{
		// GET /predict		-> Prediction form
		p.GET("", predict.PredictPage)

		// POST /predict	-> Runs a prediction, saves it and mails the report
		p.POST("", bodyLimit, func(c *gin.Context) { predict.Predict(c, d) })
	}

	del := middleware.RequireSession("You need to log in to perform this action.")

	// POST /delete_record/:id	-> Deletes a single record owned by the current user
	router.POST("/delete_record/:id", del, func(c *gin.Context) { record.RecordDelete(c, d) })

	// POST /delete_all_records	-> Deletes every record owned by the current user
	router.POST("/delete_all_records", del, func(c *gin.Context) { record.RecordDeleteAll(c, d) })

	router.NoRoute(root.NotFound)

	return a, nil
}

// Close stops background work started by the router
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}
