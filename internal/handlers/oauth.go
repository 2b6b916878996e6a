package handlers

import (
	"errors"
	"net/http"

	"github.com/communitykit/activitysync/internal/auth"
	"github.com/communitykit/activitysync/internal/middleware"
	"github.com/communitykit/activitysync/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// OAuthHandler serves the provider connect, callback and disconnect endpoints.
type OAuthHandler struct {
	connections  *services.ConnectionService
	callbacks    *services.CallbackService
	secureCookie bool
}

// NewOAuthHandler creates a new OAuth handler. secureCookie marks the CSRF
// cookie Secure and should be true in production.
func NewOAuthHandler(
	connections *services.ConnectionService,
	callbacks *services.CallbackService,
	secureCookie bool,
) *OAuthHandler {
	return &OAuthHandler{
		connections:  connections,
		callbacks:    callbacks,
		secureCookie: secureCookie,
	}
}

// Connect redirects the signed-in user to the provider's consent page.
// GET /api/auth/connect?provider={p}&redirect={path}
func (h *OAuthHandler) Connect(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
		return
	}

	provider := c.Query("provider")
	result, err := h.connections.Connect(userID, provider, c.Query("redirect"))
	switch {
	case errors.Is(err, auth.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid provider"})
		return
	case errors.Is(err, services.ErrUnsafeRedirect):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid redirect path"})
		return
	case errors.Is(err, auth.ErrProviderNotConfigured):
		log.Error().Str("provider", provider).Msg("connect requested for unconfigured provider")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Provider is not configured",
		})
		return
	case err != nil:
		log.Error().Err(err).Str("provider", provider).Msg("failed to start oauth flow")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to start OAuth flow",
		})
		return
	}

	h.setCSRFCookie(c, result.Nonce, int(auth.StateTTL.Seconds()))
	c.Redirect(http.StatusFound, result.AuthURL)
}

// Callback completes the provider flow and redirects back into the app.
// The CSRF cookie is cleared whatever the outcome.
// GET /api/auth/callback/:provider
func (h *OAuthHandler) Callback(c *gin.Context) {
	cookieNonce, _ := c.Cookie(auth.CSRFCookieName)

	result := h.callbacks.HandleCallback(c.Request.Context(), services.CallbackRequest{
		Provider:      c.Param("provider"),
		Code:          c.Query("code"),
		State:         c.Query("state"),
		CSRFCookie:    cookieNonce,
		ProviderError: c.Query("error"),
	})

	h.setCSRFCookie(c, "", -1)
	c.Redirect(http.StatusFound, result.RedirectURL)
}

type disconnectRequest struct {
	Provider string `json:"provider"`
}

// Disconnect revokes and removes the user's connection to a provider.
// POST /api/auth/disconnect {"provider": "..."}
func (h *OAuthHandler) Disconnect(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
		return
	}

	var req disconnectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid provider"})
		return
	}

	result, err := h.connections.Disconnect(c.Request.Context(), userID, req.Provider)
	switch {
	case errors.Is(err, auth.ErrUnsupportedProvider):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid provider"})
		return
	case errors.Is(err, services.ErrNotConnected):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Provider not connected"})
		return
	case err != nil:
		log.Error().Err(err).Str("provider", req.Provider).Msg("disconnect failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to disconnect provider",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"tokenRevoked": result.TokenRevoked,
	})
}

func (h *OAuthHandler) setCSRFCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CSRFCookieName, value, maxAge, auth.CSRFCookiePath, "", h.secureCookie, true)
}
