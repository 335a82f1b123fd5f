package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/interfaces/http/response"
	"chamado.backend/internal/usecases"
	"chamado.backend/pkg/utils"
)

// AdminHandler handles admin endpoints
type AdminHandler struct {
	admin *usecases.AdminUsecase
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *usecases.AdminUsecase) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers lists participants
// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	filter := usecases.UserFilter{
		Search:           c.Query("search"),
		PaymentStatus:    entities.PaymentStatus(strings.ToUpper(c.Query("paymentStatus"))),
		EnrollmentStatus: entities.EnrollmentStatus(strings.ToUpper(c.Query("enrollmentStatus"))),
	}
	users, meta, err := h.admin.ListUsers(c.Request.Context(), filter, utils.GetPaginationParams(page, limit))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users, "meta": meta})
}

// GetUser returns one participant
// GET /api/v1/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// UpdateUserStatus sets the enrollment status of a participant
// PUT /api/v1/admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	status := entities.EnrollmentStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	user, err := h.admin.SetStatus(c.Request.Context(), c.Param("id"), status)
	h.writeUser(c, user, err)
}

// ApproveUser approves an enrollment
// POST /api/v1/admin/users/:id/approve
func (h *AdminHandler) ApproveUser(c *gin.Context) {
	user, err := h.admin.Approve(c.Request.Context(), c.Param("id"))
	h.writeUser(c, user, err)
}

// RejectUser rejects an enrollment
// POST /api/v1/admin/users/:id/reject
func (h *AdminHandler) RejectUser(c *gin.Context) {
	user, err := h.admin.Reject(c.Request.Context(), c.Param("id"))
	h.writeUser(c, user, err)
}

func (h *AdminHandler) writeUser(c *gin.Context, user *entities.UserProfile, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// GetStats returns the dashboard cards
// GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GetInsights returns the generated analysis of the current aggregate
// GET /api/v1/admin/insights
func (h *AdminHandler) GetInsights(c *gin.Context) {
	report, err := h.admin.Insights(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// GetDashboard returns stats, recent participants and missions
// GET /api/v1/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	dash, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}

// GetPayments returns the financial summary
// GET /api/v1/admin/payments
func (h *AdminHandler) GetPayments(c *gin.Context) {
	summary, err := h.admin.Payments(c.Request.Context(), &entities.UserProfile{Role: entities.UserRoleAdmin})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// GetReports returns enrollment counts per status
// GET /api/v1/admin/reports
func (h *AdminHandler) GetReports(c *gin.Context) {
	report, err := h.admin.Reports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// ListMissions returns the mission catalog with occupancy
// GET /api/v1/admin/missions
func (h *AdminHandler) ListMissions(c *gin.Context) {
	missions, err := h.admin.Missions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	type missionView struct {
		*entities.Mission
		Occupancy float64 `json:"occupancy"`
	}
	out := make([]missionView, 0, len(missions))
	for _, m := range missions {
		out = append(out, missionView{Mission: m, Occupancy: m.OccupancyPercent()})
	}
	response.Success(c, http.StatusOK, gin.H{"missions": out})
}
