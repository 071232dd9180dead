package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルーティングを組み立ててechoサーバーを起動する。
func Start(
	addr string,
	cfg config.Config,
	authH *handler.AuthHandler,
	productH *handler.ProductHandler,
	orderH *handler.OrderHandler,
	notificationH *handler.NotificationHandler,
	auditH *handler.AuditLogHandler,
) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	authH.RegisterRoutes(e)
	productH.RegisterRoutes(e, cfg)
	orderH.RegisterRoutes(e, cfg)
	notificationH.RegisterRoutes(e, cfg)
	auditH.RegisterRoutes(e, cfg)

	return e.Start(addr)
}
