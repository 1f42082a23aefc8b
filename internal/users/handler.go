package users

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault-backend/internal/shared/server/middleware"
	"filevault-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.EnsureActor(
		c.Request.Context(),
		middleware.UserIDFromContext(c),
		middleware.UsernameFromContext(c),
	)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"role":         user.Role,
		"uploadStatus": user.UploadStatus,
	})
}
