package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/interfaces/http/response"
	"chamado.backend/internal/usecases"
)

// SessionHandler serves the participant shell: profile, navigation and the
// briefing gate.
type SessionHandler struct {
	sessions *usecases.SessionUsecase
	admin    *usecases.AdminUsecase
}

func NewSessionHandler(sessions *usecases.SessionUsecase, admin *usecases.AdminUsecase) *SessionHandler {
	return &SessionHandler{sessions: sessions, admin: admin}
}

type sessionView struct {
	SessionID string                    `json:"sessionId"`
	Profile   *entities.UserProfile     `json:"profile"`
	View      entities.AppView          `json:"view"`
	Title     string                    `json:"title"`
	Menu      []entities.AppView        `json:"menu"`
	Badge     *entities.StatusBadge     `json:"badge,omitempty"`
	Briefing  entities.BriefingProgress `json:"briefing"`
}

func newSessionView(s *entities.Session) sessionView {
	return sessionView{
		SessionID: s.ID,
		Profile:   s.Profile,
		View:      s.View,
		Title:     entities.ViewTitle(s.View, s.Profile.Role),
		Menu:      entities.MenuFor(s.Profile.Role),
		Badge:     entities.BadgeFor(s.Profile.EnrollmentStatus),
		Briefing:  s.Briefing,
	}
}

// GetSession returns the active profile and navigation state
// GET /api/v1/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	s, err := h.sessions.GetSession(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newSessionView(s))
}

// SetView navigates to another screen
// PUT /api/v1/session/view
func (h *SessionHandler) SetView(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	var input struct {
		View entities.AppView `json:"view" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	s, err := h.sessions.Navigate(c.Request.Context(), sid, input.View)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, newSessionView(s))
}

// BriefingProgress records playback of the mission briefing
// POST /api/v1/briefing/progress
func (h *SessionHandler) BriefingProgress(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	var input struct {
		CurrentTime float64 `json:"currentTime"`
		Duration    float64 `json:"duration"`
		Ended       bool    `json:"ended"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	update, err := h.sessions.RecordBriefingProgress(c.Request.Context(), sid, input.CurrentTime, input.Duration, input.Ended)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, update)
}

// Missions lists the mission catalog
// GET /api/v1/missions
func (h *SessionHandler) Missions(c *gin.Context) {
	missions, err := h.admin.Missions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"missions": missions})
}

// PaymentHistory returns the caller's own payment record
// GET /api/v1/payments/history
func (h *SessionHandler) PaymentHistory(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	s, err := h.sessions.GetSession(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	own := s.Profile.Clone()
	own.Role = entities.UserRoleUser
	summary, err := h.admin.Payments(c.Request.Context(), own)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}
