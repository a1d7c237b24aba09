package settingshandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auctionhousego/internal/http/identity"
	"auctionhousego/internal/services/settings"
)

type Handler struct {
	svc settings.ISettingsService
}

func New(svc settings.ISettingsService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/settings", h.get)
	// The admin UI has sent all three verbs over its lifetime.
	r.PUT("/settings", identity.RequireAdmin(), h.save)
	r.PATCH("/settings", identity.RequireAdmin(), h.save)
	r.POST("/settings", identity.RequireAdmin(), h.save)
}

// @Summary		Get marketplace settings
// @Tags			Settings
// @Success		200	{object}	settings.Settings
// @Router			/settings [get]
func (h *Handler) get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary		Update marketplace settings
// @Tags			Settings
// @Param			body	body		settings.Patch	true	"Partial settings"
// @Success		200		{object}	settings.Settings
// @Failure		400		{object}	map[string]string
// @Router			/settings [patch]
func (h *Handler) save(c *gin.Context) {
	var p settings.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.svc.Save(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}
