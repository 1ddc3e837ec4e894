package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/logger"
	"yatube/internal/middleware"
	"yatube/internal/services"
)

// Render injects the values every page relies on: the current user, the
// request path, the active nav item and the form error map.
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	obj["CurrentUser"] = middleware.CurrentUser(c)
	obj["CurrentPath"] = c.Request.URL.Path
	if _, ok := obj["Active"]; !ok {
		obj["Active"] = ""
	}
	if _, ok := obj["Errors"]; !ok {
		obj["Errors"] = map[string]string{}
	}

	c.HTML(code, name, obj)
}

func NotFound(c *gin.Context) {
	Render(c, http.StatusNotFound, "core/404.html", nil)
}

func ServerError(c *gin.Context) {
	Render(c, http.StatusInternalServerError, "core/500.html", nil)
}

// RenderError maps service errors onto responses. Validation errors are
// handled by the form handlers themselves.
func RenderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFound(c)
	case errors.Is(err, services.ErrForbidden):
		middleware.RedirectToLogin(c)
	default:
		_ = c.Error(err)
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		ServerError(c)
	}
}

// validationFields unwraps a ValidationError.
func validationFields(err error) (map[string]string, bool) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
