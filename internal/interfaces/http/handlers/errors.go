package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/interfaces/http/middleware"
	"chamado.backend/internal/interfaces/http/response"
	"chamado.backend/pkg/logger"
)

// respondError maps usecase errors onto HTTP responses. AppErrors pass
// through unchanged.
func respondError(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		response.Error(c, appErr)
		return
	}
	mapped := mapError(err)
	if mapped.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	response.Error(c, mapped)
}

func mapError(err error) *domainerrors.AppError {
	switch {
	// ErrCameraUnavailable wraps ErrVideoRequired and must be checked first
	case errors.Is(err, domainerrors.ErrCameraUnavailable):
		return domainerrors.UnprocessableEntity(domainerrors.CodeVideoRequired,
			entities.MsgVideoRequired+": câmera indisponível. "+entities.MsgVideoAlert, err)
	case errors.Is(err, domainerrors.ErrVideoRequired):
		return domainerrors.UnprocessableEntity(domainerrors.CodeVideoRequired,
			entities.MsgVideoRequired+": "+entities.MsgVideoAlert, err)
	case errors.Is(err, domainerrors.ErrGuardianRequired):
		return domainerrors.UnprocessableEntity(domainerrors.CodeGuardianRequired,
			entities.MsgGuardianRequired+": "+entities.MsgGuardianAlert, err)
	case errors.Is(err, domainerrors.ErrTermsNotAccepted):
		return domainerrors.UnprocessableEntity(domainerrors.CodeTermsNotAccepted,
			"É necessário aceitar os termos para continuar.", err)
	case errors.Is(err, domainerrors.ErrNoActiveSession):
		return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeNoActiveSession, "No active session", err)
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized("Invalid or expired token")
	case errors.Is(err, domainerrors.ErrViewNotAllowed):
		return domainerrors.Forbidden("View not available for this role")
	case errors.Is(err, domainerrors.ErrBriefingRequired):
		return domainerrors.NewAppError(http.StatusForbidden, domainerrors.CodeBriefingRequired,
			"Assista ao briefing da missão antes de iniciar a inscrição.", err)
	case errors.Is(err, domainerrors.ErrWizardNotStarted):
		return domainerrors.NewAppError(http.StatusNotFound, domainerrors.CodeWizardNotStarted, "Enrollment wizard not started", err)
	case errors.Is(err, domainerrors.ErrFirstStep),
		errors.Is(err, domainerrors.ErrTerminalStep),
		errors.Is(err, domainerrors.ErrNotTerminalStep),
		errors.Is(err, domainerrors.ErrPaymentNotProcessed),
		errors.Is(err, domainerrors.ErrConsentNotReady):
		return domainerrors.Conflict(domainerrors.CodeWizardState, err)
	case errors.Is(err, domainerrors.ErrInvalidCaptureState):
		return domainerrors.Conflict(domainerrors.CodeInvalidCaptureState, err)
	case errors.Is(err, domainerrors.ErrRecordingTooLarge):
		return domainerrors.NewAppError(http.StatusRequestEntityTooLarge, domainerrors.CodePayloadTooLarge, err.Error(), err)
	case errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NotFound("Participant not found")
	case errors.Is(err, domainerrors.ErrInvalidStatus),
		errors.Is(err, domainerrors.ErrInvalidInput),
		errors.Is(err, domainerrors.ErrBadRequest):
		return domainerrors.BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return domainerrors.NewAppError(http.StatusGatewayTimeout, domainerrors.CodeInternalError, "request timed out", err)
	}
	return domainerrors.InternalError(err)
}

// sessionID returns the session bound by the auth middleware, writing a 401
// when there is none.
func sessionID(c *gin.Context) (string, bool) {
	sid, ok := middleware.GetSessionID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return "", false
	}
	return sid, true
}
