package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storehub/backend/internal/domain/identity"
	"github.com/storehub/backend/internal/interfaces/http/dto"
)

// OrganizationIDKey holds the parsed tenant UUID of the caller
const OrganizationIDKey = "organization_id"

// RequireOrganization parses the tenant claim set by JWTAuth or CatalogAuth
// and stores it as a UUID for handlers.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWith(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		orgID, err := claims.TenantUUID()
		if err != nil || orgID == uuid.Nil {
			abortWith(c, dto.ErrCodeTokenInvalid, "Token carries no organization")
			return
		}
		c.Set(OrganizationIDKey, orgID)
		c.Next()
	}
}

// GetOrganizationID returns the UUID stored by RequireOrganization
func GetOrganizationID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(OrganizationIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// RequireRole lets through members whose role ranks at least min.
// OWNER > ADMIN > MEMBER.
func RequireRole(min identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWith(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !identity.Role(claims.Role).AtLeast(min) {
			abortWith(c, dto.ErrCodeForbidden, "Requires the "+string(min)+" role")
			return
		}
		c.Next()
	}
}

func abortWith(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
