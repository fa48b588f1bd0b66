package router

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/garage-admin/internal/handler"
	"github.com/iliyamo/garage-admin/internal/middleware"
)

// API groups the handlers and middleware mounted under /api.
type API struct {
	Auth   *handler.AuthHandler
	Users  *handler.UserHandler
	Roles  *handler.RoleHandler
	Access *middleware.AccessControl

	// Limiter guards the credential endpoints; Cache wraps the role list.
	// Either may be nil.
	Limiter echo.MiddlewareFunc
	Cache   echo.MiddlewareFunc
}

// RegisterRoutes registers routes that need no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the JSON API under /api.
func RegisterAPI(e *echo.Echo, a API) {
	g := e.Group("/api")

	limited := optional(a.Limiter)
	g.POST("/signup", a.Auth.SignUp, limited...)
	g.POST("/signin", a.Auth.SignIn, limited...)
	g.POST("/verify-token", a.Auth.VerifyToken)
	g.POST("/signout", a.Auth.SignOut)
	g.GET("/me", a.Auth.Me, a.Access.RequireAuth())

	g.GET("/roles", a.Roles.List, optional(a.Cache)...)

	g.GET("/users", a.Users.List, a.Access.RequireAdmin())
	g.PUT("/users/:id", a.Users.Update, a.Access.RequireAuth())
	g.DELETE("/users/:id", a.Users.Delete, a.Access.RequireAuth())
}

// RegisterStatic serves the built front end from dir. Unknown paths fall
// back to index.html so client side routes survive a reload; /api and
// /healthz are left to the router.
func RegisterStatic(e *echo.Echo, dir string) {
	e.Use(echomw.StaticWithConfig(echomw.StaticConfig{
		Root:  dir,
		Index: "index.html",
		HTML5: true,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/api" || strings.HasPrefix(p, "/api/") || p == "/healthz"
		},
	}))
}

// CORS allows the console front end to call the API with its cookie.
func CORS(origins []string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
	})
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
