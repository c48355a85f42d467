package sandbox

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const authRealm = "teamwork-sandbox"

/*
RequireBasicAuth accepts requests whose basic auth user is apiKey; the password is ignored,
as on Teamwork. On failure responds 401.
*/
func RequireBasicAuth(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _, ok := c.Request().BasicAuth()
			if !ok || user == "" {
				return unauthorized(c)
			}
			// Constant-time compare.
			if subtle.ConstantTimeCompare([]byte(user), []byte(apiKey)) != 1 {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	LogRouteAccess(c, tl.Info, "Unauthorized access attempt", palette.Yellow)

	c.Response().Header().Set("WWW-Authenticate", `Basic realm="`+authRealm+`"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"STATUS":  "Error",
		"MESSAGE": "unauthorized",
	})
}
