package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/logger"
	"yatube/internal/middleware"
)

type AdminHandler struct {
	listing *cache.ListingCache
}

func NewAdminHandler(listing *cache.ListingCache) *AdminHandler {
	return &AdminHandler{listing: listing}
}

// StaffRequired lets only staff users through; others are sent to log in.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil || !user.IsStaff {
			middleware.RedirectToLogin(c)
			return
		}
		c.Next()
	}
}

// ClearCache empties the listing cache so the next home page read is fresh.
func (h *AdminHandler) ClearCache(c *gin.Context) {
	if err := h.listing.Clear(c.Request.Context()); err != nil {
		RenderError(c, err)
		return
	}
	logger.Info("listing cache cleared", zap.Uint("user_id", middleware.CurrentUser(c).ID))
	c.Redirect(http.StatusFound, "/")
}
