package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, opts mw.Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("tenant", c.Request().Header.Get(mw.HeaderTenant)).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{
			"Authorization", "Content-Type",
			mw.HeaderTenant, mw.HeaderToken, mw.HeaderUserID, mw.HeaderRequestID, mw.HeaderURL,
		},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{echo.HeaderLocation},
	}))

	// Operational endpoints (no tenant required)
	e.GET("/admin/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("")
	api.Use(mw.OkapiContext(opts))

	api.GET("/notify", h.List)
	api.POST("/notify", h.Create)
	api.GET("/notify/_self", h.ListSelf)
	api.DELETE("/notify/_self", h.DeleteSelf)
	api.GET("/notify/_self/stream", h.Stream)
	api.POST("/notify/_username/:username", h.CreateByUsername)
	api.GET("/notify/:id", h.Get)
	api.PUT("/notify/:id", h.Update)
	api.DELETE("/notify/:id", h.Delete)

	api.POST("/patron-notice", h.PatronNotice)

	return e
}
