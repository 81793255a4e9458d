package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

// adminMiddleware restricts a route to owner and administrator accounts.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// roleMiddleware restricts a route to the given roles.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if user.Role(claims.Role) == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

// staffMiddleware restricts a route to all roles but students.
func staffMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleOwner, user.RoleAdministrator, user.RoleSupervisor)
}

// studentMiddleware restricts a route to students.
func studentMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleStudent)
}
