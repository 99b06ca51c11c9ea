package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/choafros/jdm-vault/internal/core/domain"
	"github.com/choafros/jdm-vault/internal/pkg/metrics"
)

// HasRole reports whether claims carry one of the required roles. An empty
// role set only requires verified claims.
func HasRole(claims *domain.Claims, required ...domain.Role) bool {
	if claims == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if claims.Role == r {
			return true
		}
	}
	return false
}

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(required ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return domain.ErrUnauthorized
			}
			if !HasRole(claims, required...) {
				metrics.GateRejectionsTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
