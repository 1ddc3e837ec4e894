package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/models"
)

const (
	CheckUserKey  = "user"
	SessionUserID = "user_id"
	LoginPath     = "/auth/login/"
)

// UserLoader resolves the user id kept in the session.
type UserLoader interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

// CurrentUser returns the logged in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CheckUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// LoginURL is the login page that sends the user back to path afterwards.
func LoginURL(path string) string {
	return LoginPath + "?next=" + (&url.URL{Path: path}).EscapedPath()
}

// RedirectToLogin aborts the request with a redirect to the login page.
func RedirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.Path))
	c.Abort()
}

// AuthRequired lets only logged in users through.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			RedirectToLogin(c)
			return
		}
		c.Next()
	}
}

// LoadUser retrieves the user from the session and stores it in the context.
// A session pointing at a vanished user is cleared.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(SessionUserID).(uint)
		if ok {
			user, err := users.User(c.Request.Context(), id)
			if err == nil {
				c.Set(CheckUserKey, user)
			} else {
				logger.Debug("session user not loaded", zap.Uint("user_id", id), zap.Error(err))
				session.Delete(SessionUserID)
				_ = session.Save()
			}
		}
		c.Next()
	}
}
