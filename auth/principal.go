package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"warbler/entities"
	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const UnauthorizedMessage = "Access unauthorized."

type principalKey struct{}

// UserLookup resolves a user id to a user.
type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*entities.User, error)
}

func WithPrincipal(ctx context.Context, user *entities.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFrom returns the authenticated user, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *entities.User {
	user, _ := ctx.Value(principalKey{}).(*entities.User)
	return user
}

func setPrincipal(c *gin.Context, user *entities.User) {
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), user))
}

// LoadPrincipal attaches the session user to the request context. Ids that
// no longer resolve to a user are dropped from the session; other lookup
// failures leave the session alone and serve the request anonymously.
func (s *Sessions) LoadPrincipal(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := s.UserID(c.Request)
		if !ok {
			c.Next()
			return
		}
		user, err := users.GetUser(c.Request.Context(), id)
		if errors.Is(err, usecases.ErrNotFound) {
			logrus.WithField("user_id", id).Debug("session refers to unknown user")
			if err := s.Logout(c.Writer, c.Request); err != nil {
				logrus.WithError(err).Warn("could not clear stale session")
			}
			c.Next()
			return
		}
		if err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("could not load session user")
			c.Next()
			return
		}
		setPrincipal(c, user)
		c.Next()
	}
}

// RequireUser rejects anonymous requests with a flash and a redirect home.
func (s *Sessions) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c.Request.Context()) != nil {
			c.Next()
			return
		}
		monitoring.AuthorizationDenied.WithLabelValues(c.FullPath()).Inc()
		if err := s.AddFlash(c.Writer, c.Request, "danger", UnauthorizedMessage); err != nil {
			logrus.WithError(err).Warn("could not save flash")
		}
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}

// BearerPrincipal attaches the user named by a valid bearer token. The token
// may also come from the token query parameter, for websocket clients.
func BearerPrincipal(tokens *TokenIssuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.Next()
			return
		}
		id, err := tokens.Parse(raw)
		if err != nil {
			c.Next()
			return
		}
		user, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			c.Next()
			return
		}
		setPrincipal(c, user)
		c.Next()
	}
}

// RequireToken rejects API requests without a principal.
func RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFrom(c.Request.Context()) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": UnauthorizedMessage})
			return
		}
		c.Next()
	}
}
