package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// StripRootPath removes the reverse-proxy prefix from incoming paths so
// routes are registered once regardless of where the service is mounted.
func StripRootPath(rootPath string) echo.MiddlewareFunc {
	rootPath = "/" + strings.Trim(rootPath, "/")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rootPath == "/" {
				return next(c)
			}
			req := c.Request()
			path := req.URL.Path
			if path == rootPath || strings.HasPrefix(path, rootPath+"/") {
				stripped := strings.TrimPrefix(path, rootPath)
				if stripped == "" {
					stripped = "/"
				}
				req.URL.Path = stripped
				req.URL.RawPath = ""
			}
			return next(c)
		}
	}
}
