package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftboard/internal/domain/models"
	"github.com/mamadbah2/shiftboard/internal/service/session"
)

const (
	ctxUserKey      = "user"
	ctxSessionIDKey = "session_id"
)

// SessionService describes the session operations the HTTP layer uses.
type SessionService interface {
	SignIn(ctx context.Context, email, password string) (*session.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, string, error)
}

// SessionHandler signs operators in and out.
type SessionHandler struct {
	svc    SessionService
	logger *zap.Logger
}

// NewSessionHandler constructs the HTTP handler adapter.
func NewSessionHandler(svc SessionService, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{svc: svc, logger: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName()}
}

// SignIn exchanges email and password for a session token.
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, session.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	case err != nil:
		h.logger.Error("sign in failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication service unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user":       newUserResponse(sess.User),
	})
}

// SignOut revokes the caller's session.
func (h *SessionHandler) SignOut(c *gin.Context) {
	err := h.svc.SignOut(c.Request.Context(), bearerToken(c))
	if errors.Is(err, session.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if err != nil {
		h.logger.Error("sign out failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to sign out"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Current returns the signed-in user.
func (h *SessionHandler) Current(c *gin.Context) {
	user, ok := c.Get(ctxUserKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user.(*models.User)))
}

// RequireSession rejects requests without a valid bearer token and exposes the user to later
// handlers.
func (h *SessionHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, sessionID, err := h.svc.CurrentUser(c.Request.Context(), bearerToken(c))
		if errors.Is(err, session.ErrUnauthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		if err != nil {
			h.logger.Error("session lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "session store unavailable"})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxSessionIDKey, sessionID)
		c.Next()
	}
}

// bearerToken reads the Authorization header, or the access_token query parameter for
// EventSource clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.Query("access_token")
}
