package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/errorutil"
)

// Role tokens carried inside issued credentials. These are the opaque codes
// the browser client has always shipped with; sessions present the token, not
// the role name.
const (
	RoleTokenAdmin    = "9087-t1-vaek-123-riop"
	RoleTokenEngineer = "2069-t2-prlo-456-fiok"
	RoleTokenUser     = "4032-t3-raek-789-chop"
)

// ResolveRole maps a role token to a role. An unrecognized token is rejected
// as an authentication failure rather than falling back to the least
// privileged role.
func ResolveRole(token string) (domain.Role, error) {
	switch token {
	case RoleTokenAdmin:
		return domain.RoleAdmin, nil
	case RoleTokenEngineer:
		return domain.RoleEngineer, nil
	case RoleTokenUser:
		return domain.RoleUser, nil
	}
	return "", apperrors.NewUnauthorized("unrecognized role token")
}

// RoleToken returns the opaque token for a role.
func RoleToken(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return RoleTokenAdmin
	case domain.RoleEngineer:
		return RoleTokenEngineer
	default:
		return RoleTokenUser
	}
}

// RequireRole ensures the authenticated principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewUnauthorized("insufficient role")
		}
		return c.Next()
	}
}

// RequireRouteOwner ensures the :user_id route segment names the caller.
func RequireRouteOwner(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if c.Params(param) != principal.Account.ID {
			return apperrors.NewUnauthorized("route not owned by caller")
		}
		return c.Next()
	}
}
