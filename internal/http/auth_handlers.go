package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-service/internal/audit"
	"catalog-service/internal/domain"
	"catalog-service/internal/metrics"
	"catalog-service/internal/service"
)

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

const internalFailure = "internal_error"

func clientOf(c *gin.Context) audit.Client {
	return audit.Client{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *Handler) countAuth(event string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
	}
	h.metrics.AuthEvent(event, outcome)
}

func failureReason(err error) string {
	if reason := service.FailureReason(err); reason != "" {
		return reason
	}
	return internalFailure
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	h.countAuth("register", err)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.trail.RecordRegistration(c.Request.Context(), session.User.ID, session.User.Email, clientOf(c))
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	h.countAuth("login", err)
	if err != nil {
		h.trail.RecordLoginFailure(c.Request.Context(), service.FailedUserID(err), auditEmail(req.Email), failureReason(err), clientOf(c))
		h.writeError(c, err)
		return
	}

	h.trail.RecordLoginSuccess(c.Request.Context(), session.User.ID, session.User.Email, clientOf(c))
	c.JSON(http.StatusOK, session)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	h.countAuth("refresh", err)
	if err != nil {
		h.trail.RecordTokenRefresh(c.Request.Context(), service.FailedUserID(err), "", failureReason(err), clientOf(c))
		h.writeError(c, err)
		return
	}

	h.trail.RecordTokenRefresh(c.Request.Context(), session.User.ID, session.User.Email, "", clientOf(c))
	c.JSON(http.StatusOK, session)
}

func (h *Handler) logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID, err := h.auth.Logout(c.Request.Context(), req.RefreshToken)
	h.countAuth("logout", err)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if userID != "" {
		h.trail.RecordLogout(c.Request.Context(), userID, clientOf(c))
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	claims, _ := claimsFrom(c)
	view, err := h.auth.WhoAmI(c.Request.Context(), claims.Subject)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if view == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	claims, _ := claimsFrom(c)
	err := h.auth.ChangePassword(c.Request.Context(), claims.Subject, req.CurrentPassword, req.NewPassword)
	h.countAuth("change_password", err)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// auditEmail normalizes a submitted address so failures group by account;
// malformed input is recorded as sent.
func auditEmail(raw string) string {
	if email, err := domain.NormalizeEmail(raw); err == nil {
		return email
	}
	return raw
}
