package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yatube/internal/services"
)

type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List shows every group.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	Render(c, http.StatusOK, "posts/groups.html", gin.H{
		"Groups": groups,
		"Active": "groups",
	})
}
