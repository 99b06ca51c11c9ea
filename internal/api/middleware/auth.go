package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/choafros/jdm-vault/internal/core/domain"
	"github.com/choafros/jdm-vault/internal/core/ports"
	"github.com/choafros/jdm-vault/internal/pkg/metrics"
)

const claimsKey = "auth.claims"

// Auth verifies the token in the Authorization header and stores the claims
// on the context. The header carries the raw token; a "Bearer " prefix is
// tolerated.
//
// A missing header fails with domain.ErrMissingToken and a token that does
// not verify fails with an error matching domain.ErrUnauthorized.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			if len(raw) >= 6 && strings.EqualFold(raw[:6], "bearer") && (len(raw) == 6 || raw[6] == ' ') {
				raw = strings.TrimSpace(raw[6:])
			}
			if raw == "" {
				metrics.GateRejectionsTotal.WithLabelValues("missing_token").Inc()
				return domain.ErrMissingToken
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				metrics.GateRejectionsTotal.WithLabelValues("invalid_token").Inc()
				return err
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c echo.Context) (*domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*domain.Claims)
	return claims, ok && claims != nil
}
