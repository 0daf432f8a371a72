package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/cache"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/utils"
)

// userCacheTTL bounds how long a stale role can keep working after an admin
// changes it
const userCacheTTL = 5 * time.Minute

// cachedUser is the slice of the user record the middleware needs per request
type cachedUser struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// AuthMiddleware verifies JWT tokens, confirms the user still exists, and
// adds user info to the context. User lookups are memoized in the injected
// cache for userCacheTTL.
func AuthMiddleware(db *gorm.DB, userCache cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		user, err := lookupUser(c.Request.Context(), db, userCache, claims.UserID.String())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", user.Email)
		c.Set("role", user.Role)

		c.Next()
	}
}

// RequireRole ensures the authenticated user has one of the given roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}

		role := value.(models.Role)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		c.Abort()
	}
}

// AdminMiddleware ensures the user has admin privileges
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// lookupUser returns the cached user slice, falling back to the database and
// repopulating the cache on a miss. Cache failures degrade to plain lookups.
func lookupUser(ctx context.Context, db *gorm.DB, userCache cache.Cache, userID string) (*cachedUser, error) {
	key := "user:" + userID

	if data, err := userCache.Get(ctx, key); err == nil {
		var user cachedUser
		if err := json.Unmarshal(data, &user); err == nil {
			return &user, nil
		}
	}

	var user models.User
	if err := db.Select("email", "role").First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	cached := cachedUser{Email: user.Email, Role: user.Role}
	if data, err := json.Marshal(cached); err == nil {
		_ = userCache.Set(ctx, key, data, userCacheTTL)
	}

	return &cached, nil
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	parts := strings.Split(bearerToken, " ")
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}
