package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/common"
	"github.com/dmitrijs2005/rxauth/internal/logging"
	"github.com/dmitrijs2005/rxauth/internal/server/models"
	"github.com/dmitrijs2005/rxauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

type handler struct {
	authenticator Authenticator
	provisioner   Provisioner
	profiles      ProfileReader
	sessions      SessionIssuer
	cookie        CookieOptions
	ping          Pinger
	logger        logging.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User    models.Identity `json:"user"`
	Expires time.Time       `json:"expires"`
}

type sessionUser struct {
	ID   string      `json:"id"`
	Role models.Role `json:"role"`
}

type sessionResponse struct {
	User    sessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrMissingCredentials)
		return
	}

	id, err := h.authenticator.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expires, err := h.sessions.Issue(*id)
	if err != nil {
		h.logger.Error(c.Request.Context(), "issuing session token failed", "account_id", id.ID, "error", err)
		respondError(c, common.ErrorInternal)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.sessions.Lifetime().Seconds()), "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, loginResponse{User: *id, Expires: expires})
}

func (h *handler) register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, common.ErrInvalidInput)
		return
	}

	reg, err := h.provisioner.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reg)
}

func (h *handler) session(c *gin.Context) {
	view := sessionFrom(c)
	if view == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		User:    sessionUser{ID: view.ID, Role: view.Role},
		Expires: view.ExpiresAt,
	})
}

// logout only drops the cookie. Tokens are stateless and stay valid until
// they expire.
func (h *handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{})
}

func (h *handler) profile(c *gin.Context) {
	view := sessionFrom(c)

	p, err := h.profiles.GetByAccount(c.Request.Context(), view.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": common.MessageProfileNotFound})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *handler) health(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.logger.Warn(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
