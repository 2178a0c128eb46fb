package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/domain/navigation"
	"github.com/GriffinCanCode/AgentOS/browserdesk/internal/shared/utils"
)

type navigateRequest struct {
	URL string `json:"url" binding:"required"`
}

// Navigate loads a URL in a view
func (h *Handlers) Navigate(c *gin.Context) {
	viewID, ok := viewParam(c)
	if !ok {
		return
	}

	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateURL(req.URL); err != nil {
		badRequest(c, err)
		return
	}

	out, err := h.nav.Navigate(c.Request.Context(), viewID, req.URL)
	respondNavigation(c, viewID, out, err)
}

// Refresh reloads a view
func (h *Handlers) Refresh(c *gin.Context) {
	viewID, ok := viewParam(c)
	if !ok {
		return
	}
	out, err := h.nav.Refresh(c.Request.Context(), viewID)
	respondNavigation(c, viewID, out, err)
}

// GoBack moves a view back in its history
func (h *Handlers) GoBack(c *gin.Context) {
	viewID, ok := viewParam(c)
	if !ok {
		return
	}
	out, err := h.nav.GoBack(c.Request.Context(), viewID)
	respondNavigation(c, viewID, out, err)
}

// GoForward moves a view forward in its history
func (h *Handlers) GoForward(c *gin.Context) {
	viewID, ok := viewParam(c)
	if !ok {
		return
	}
	out, err := h.nav.GoForward(c.Request.Context(), viewID)
	respondNavigation(c, viewID, out, err)
}

func viewParam(c *gin.Context) (string, bool) {
	viewID := c.Param("id")
	if err := utils.ValidateID(viewID, "view_id", true); err != nil {
		badRequest(c, err)
		return "", false
	}
	return viewID, true
}

// respondNavigation maps a navigation result onto a status code. Missing
// history is a normal outcome and answers 200.
func respondNavigation(c *gin.Context, viewID string, out navigation.Outcome, err error) {
	var notFound *navigation.ViewNotFoundError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"view_id":    viewID,
			"ok":         out.OK,
			"no_history": out.NoHistory,
			"message":    out.Message,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":      err.Error(),
			"error_type": "view_not_found",
			"view_id":    notFound.ViewID,
			"op":         notFound.Op,
		})
	case errors.Is(err, navigation.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      err.Error(),
			"error_type": "invalid_url",
			"view_id":    viewID,
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":      err.Error(),
			"error_type": "navigation_failed",
			"view_id":    viewID,
		})
	}
}
