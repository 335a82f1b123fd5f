package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/infrastructure/export"
	"chamado.backend/internal/interfaces/http/response"
	"chamado.backend/internal/usecases"
)

// EnrollmentHandler drives the enrollment wizard and its identity capture.
type EnrollmentHandler struct {
	enrollment    *usecases.EnrollmentUsecase
	maxChunkBytes int64
}

// NewEnrollmentHandler creates a new enrollment handler. maxChunkBytes caps
// one uploaded capture chunk.
func NewEnrollmentHandler(enrollment *usecases.EnrollmentUsecase, maxChunkBytes int64) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment, maxChunkBytes: maxChunkBytes}
}

type snapshotFunc func(*gin.Context, string) (*entities.WizardSnapshot, error)

// wizardCall runs fn for the caller's session and writes the snapshot.
func (h *EnrollmentHandler) wizardCall(c *gin.Context, status int, fn snapshotFunc) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := fn(c, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, status, snap)
}

// Start opens or resumes the wizard
// POST /api/v1/enrollment
func (h *EnrollmentHandler) Start(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		return h.enrollment.Start(c.Request.Context(), sid)
	})
}

// Get returns the wizard state
// GET /api/v1/enrollment
func (h *EnrollmentHandler) Get(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		return h.enrollment.Snapshot(c.Request.Context(), sid)
	})
}

// PatchDraft merges a partial EnrollmentData into the draft
// PATCH /api/v1/enrollment/draft
func (h *EnrollmentHandler) PatchDraft(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		patch, err := c.GetRawData()
		if err != nil {
			return nil, domainerrors.BadRequest("unreadable body")
		}
		return h.enrollment.PatchDraft(c.Request.Context(), sid, patch)
	})
}

// Next advances to the following step
// POST /api/v1/enrollment/next
func (h *EnrollmentHandler) Next(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		return h.enrollment.Next(c.Request.Context(), sid)
	})
}

// Back returns to the previous step
// POST /api/v1/enrollment/back
func (h *EnrollmentHandler) Back(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		return h.enrollment.Back(c.Request.Context(), sid)
	})
}

// SelectPayment processes the simulated payment method
// POST /api/v1/enrollment/payment
func (h *EnrollmentHandler) SelectPayment(c *gin.Context) {
	h.wizardCall(c, http.StatusOK, func(c *gin.Context, sid string) (*entities.WizardSnapshot, error) {
		var input struct {
			Method entities.PaymentMethod `json:"method" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, domainerrors.BadRequest(err.Error())
		}
		return h.enrollment.SelectPaymentMethod(c.Request.Context(), sid, input.Method)
	})
}

// Submit completes the enrollment
// POST /api/v1/enrollment/submit
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	profile, err := h.enrollment.Submit(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		respondError(c, domainerrors.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":  profile,
		"view":  entities.ViewDashboard,
		"badge": entities.BadgeFor(profile.EnrollmentStatus),
	})
}

// ConsentPDF downloads the generated consent term
// GET /api/v1/enrollment/consent.pdf
func (h *EnrollmentHandler) ConsentPDF(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	doc, err := h.enrollment.ConsentDocument(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteConsentPDF(&buf, doc); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Close discards the wizard
// DELETE /api/v1/enrollment
func (h *EnrollmentHandler) Close(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.enrollment.Close(c.Request.Context(), sid); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type captureFunc func(*gin.Context, string) (*entities.CaptureSnapshot, error)

func (h *EnrollmentHandler) captureCall(c *gin.Context, fn captureFunc) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	snap, err := fn(c, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, snap)
}

func bindGrant(c *gin.Context) (entities.DeviceGrant, error) {
	var grant entities.DeviceGrant
	if err := c.ShouldBindJSON(&grant); err != nil {
		return grant, domainerrors.BadRequest(err.Error())
	}
	return grant, nil
}

// AcquireCamera reports the camera permission result
// POST /api/v1/enrollment/capture/acquire
func (h *EnrollmentHandler) AcquireCamera(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		grant, err := bindGrant(c)
		if err != nil {
			return nil, err
		}
		return h.enrollment.AcquireCamera(c.Request.Context(), sid, grant)
	})
}

// StartRecording starts the 30 second recording
// POST /api/v1/enrollment/capture/start
func (h *EnrollmentHandler) StartRecording(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		return h.enrollment.StartRecording(c.Request.Context(), sid)
	})
}

// AppendChunk uploads recorded media
// POST /api/v1/enrollment/capture/chunks
func (h *EnrollmentHandler) AppendChunk(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		body := c.Request.Body
		if h.maxChunkBytes > 0 {
			body = http.MaxBytesReader(c.Writer, body, h.maxChunkBytes)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, domainerrors.ErrRecordingTooLarge
		}
		if len(data) == 0 {
			return nil, domainerrors.BadRequest("empty chunk")
		}
		return h.enrollment.AppendChunk(c.Request.Context(), sid, data)
	})
}

// StopRecording finalizes the video early
// POST /api/v1/enrollment/capture/stop
func (h *EnrollmentHandler) StopRecording(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		return h.enrollment.StopRecording(c.Request.Context(), sid)
	})
}

// ResetCapture discards the video and reopens the camera
// POST /api/v1/enrollment/capture/reset
func (h *EnrollmentHandler) ResetCapture(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		grant, err := bindGrant(c)
		if err != nil {
			return nil, err
		}
		return h.enrollment.ResetCapture(c.Request.Context(), sid, grant)
	})
}

// GetCapture returns the capture state
// GET /api/v1/enrollment/capture
func (h *EnrollmentHandler) GetCapture(c *gin.Context) {
	h.captureCall(c, func(c *gin.Context, sid string) (*entities.CaptureSnapshot, error) {
		return h.enrollment.CaptureSnapshot(c.Request.Context(), sid)
	})
}

// Video streams the captured artifact for preview
// GET /api/v1/enrollment/capture/video
func (h *EnrollmentHandler) Video(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	v, err := h.enrollment.Video(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Video-Seconds", strconv.Itoa(v.Seconds))
	c.Data(http.StatusOK, v.MimeType, v.Data)
}
