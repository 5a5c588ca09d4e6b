package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/memoryos/analytics-api/internal/apierror"
	"github.com/memoryos/analytics-api/internal/logger"
	"github.com/memoryos/analytics-api/pkg/supabase"
)

// DemoUserID is the fixed identity assigned to unauthenticated requests
// outside production so the API can be exercised without real credentials.
const DemoUserID = "00000000-0000-0000-0000-000000000000"

// Auth middleware verifies JWT tokens. Outside production, requests
// without valid credentials fall back to the demo user instead of 401.
func Auth(client *supabase.Client, env string) gin.HandlerFunc {
	devMode := env != "production"

	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			if devMode {
				log.Debug("no credentials, using demo user")
				setUser(c, DemoUserID, "")
				c.Next()
				return
			}
			log.Debug("authentication failed: missing or malformed authorization header")
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		user, err := client.VerifyToken(token)
		if err != nil {
			if devMode {
				log.Debug("token verification failed, using demo user", logger.Err(err))
				setUser(c, DemoUserID, "")
				c.Next()
				return
			}
			log.Warn("authentication failed: token verification error", logger.Err(err))
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		setUser(c, user.ID, user.Email)
		c.Set("user_token", token)

		log.Debug("authentication successful",
			logger.String("user_id", user.ID),
			logger.String("user_email", user.Email),
		)

		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, userID, email string) {
	c.Set("user_id", userID)
	if email != "" {
		c.Set("user_email", email)
	}

	// Add user ID to request context for logging
	ctx := logger.WithUserID(c.Request.Context(), userID)
	c.Request = c.Request.WithContext(ctx)
}

// RequireSelf restricts routes with a :user_id path parameter to the
// authenticated user's own data.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		authUserID, exists := c.Get("user_id")
		if !exists {
			apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		pathUserID := c.Param("user_id")
		if pathUserID != "" && pathUserID != authUserID.(string) {
			log := logger.FromContext(c.Request.Context())
			log.Warn("cross-user access denied",
				logger.String("user_id", authUserID.(string)),
				logger.String("requested_user_id", pathUserID),
			)
			apierror.WriteProblem(c, apierror.NewForbiddenError(apierror.GetRequestID(c)))
			c.Abort()
			return
		}

		c.Next()
	}
}
