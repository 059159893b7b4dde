package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/auth"
)

const contextAccountKey = "account"

// requireSession rejects requests made while nobody is logged in.
func requireSession(mgr *auth.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			acc, ok := mgr.Current()
			if !ok {
				return errUnauthorized
			}
			ctx.Set(contextAccountKey, acc)
			return next(ctx)
		}
	}
}

func requireAdmin(mgr *auth.Manager) echo.MiddlewareFunc {
	session := requireSession(mgr)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return session(func(ctx echo.Context) error {
			if acc := contextAccount(ctx); acc.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		})
	}
}

func contextAccount(ctx echo.Context) auth.Account {
	acc, _ := ctx.Get(contextAccountKey).(auth.Account)
	return acc
}
