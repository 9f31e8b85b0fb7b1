package middleware

import (
	"github.com/OFFIS-RIT/studymap/internal/queue"
	"github.com/OFFIS-RIT/studymap/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID      string
	Role        string
	Permissions []string
}

// App holds the shared dependencies of every request. Queue and Results may
// be nil when the server runs without RabbitMQ or S3; job routes then answer
// 503. KeyFunc is nil when JWT verification is disabled.
type App struct {
	Builder        queue.MindMapBuilder
	Queue          queue.Channel
	Results        storage.ResultStore
	KeyFunc        jwt.Keyfunc
	MasterAPIKey   string
	MasterUserID   string
	MasterUserRole string
}

// AuthEnabled reports whether requests must carry credentials.
func (a *App) AuthEnabled() bool {
	return a.KeyFunc != nil || a.MasterAPIKey != ""
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
