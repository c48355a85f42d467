package sandbox

import (
	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		defer LogRouteAccess(c, tl.Info1, "Served", palette.Green)
		LogRouteAccess(c, tl.Verbose, "Serving", palette.BlueDim)
		return next(c)
	}
}

// LogRouteAccess prints one line per request stage.
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	tl.Log(
		logLevel, colorizer, "%s: Method='%s', URI='%s', Status=%s, ClientIP='%s'",
		actionName, c.Request().Method, c.Request().RequestURI, c.Response().Status, c.RealIP(),
	)
}
