package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// safeNext accepts only local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func login(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserID, userID)
	return session.Save()
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "users/signup.html", gin.H{"Form": services.SignupInput{}})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in services.SignupInput
	_ = c.ShouldBind(&in)

	user, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		if fields, ok := validationFields(err); ok {
			in.Password, in.PasswordConfirm = "", ""
			Render(c, http.StatusBadRequest, "users/signup.html", gin.H{"Form": in, "Errors": fields})
			return
		}
		RenderError(c, err)
		return
	}

	if err := login(c, user.ID); err != nil {
		RenderError(c, err)
		return
	}
	logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "users/login.html", gin.H{
		"Next":     c.Query("next"),
		"Username": "",
		"Error":    "",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := c.PostForm("next")

	user, err := h.auth.Authenticate(c.Request.Context(), username, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		Render(c, http.StatusUnauthorized, "users/login.html", gin.H{
			"Next":     next,
			"Username": username,
			"Error":    "Please enter a correct username and password.",
		})
		return
	}
	if err != nil {
		RenderError(c, err)
		return
	}

	if err := login(c, user.ID); err != nil {
		RenderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/")
}
