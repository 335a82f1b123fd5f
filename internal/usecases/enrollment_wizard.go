package usecases

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/logger"
)

// ConsentGenerator drafts the consent term from the enrollment data. It
// always returns text; failures come back as fallback messages.
type ConsentGenerator interface {
	GenerateConsentTerm(ctx context.Context, draft entities.EnrollmentData) string
}

// sleepContext waits for d or until ctx is done.
var sleepContext = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wizard is one participant's six-step enrollment draft.
type Wizard struct {
	// transition serializes Advance, Retreat, payment and submit. mu guards
	// the fields and is never held across the consent call or a delay.
	transition sync.Mutex
	mu         sync.Mutex

	sessionID    string
	consent      ConsentGenerator
	capture      *CaptureSession
	paymentDelay time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time

	step             entities.WizardStep
	data             entities.EnrollmentData
	consentText      string
	consentLoading   bool
	paymentMethod    entities.PaymentMethod
	paymentProcessed bool
	updatedAt        time.Time
	closed           bool
}

// NewWizard starts a wizard at step 1 with the draft name prefilled.
func NewWizard(sessionID, fullName string, consent ConsentGenerator, capture *CaptureSession, paymentDelay time.Duration, m *metrics.Metrics) *Wizard {
	return &Wizard{
		sessionID:    sessionID,
		consent:      consent,
		capture:      capture,
		paymentDelay: paymentDelay,
		metrics:      m,
		now:          time.Now,
		step:         entities.FirstStep,
		data:         entities.NewEnrollmentData(fullName),
		updatedAt:    time.Now(),
	}
}

func (w *Wizard) SessionID() string { return w.sessionID }

func (w *Wizard) Capture() *CaptureSession { return w.capture }

// Step returns the current step.
func (w *Wizard) Step() entities.WizardStep {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the enrollment data.
func (w *Wizard) Draft() entities.EnrollmentData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneDraft(w.data)
}

// PatchDraft merges a partial JSON document into the draft.
func (w *Wizard) PatchDraft(patch []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := cloneDraft(w.data)
	if err := json.Unmarshal(patch, &next); err != nil {
		return domainerrors.BadRequest("invalid enrollment data")
	}
	w.data = next
	w.touchLocked()
	return nil
}

// Advance moves forward one step after the current step's checks pass.
func (w *Wizard) Advance(ctx context.Context) error {
	w.transition.Lock()
	defer w.transition.Unlock()

	w.mu.Lock()
	from := w.step
	if err := w.checkLeaveLocked(); err != nil {
		w.mu.Unlock()
		w.metrics.ObserveTransition(int(from), transitionOutcome(err))
		return err
	}

	switch from {
	case entities.StepIdentity:
		w.mu.Unlock()
		w.capture.Release()
		w.mu.Lock()
	case entities.StepHealth:
		draft := cloneDraft(w.data)
		w.consentLoading = true
		w.mu.Unlock()

		text := w.consent.GenerateConsentTerm(ctx, draft)

		w.mu.Lock()
		w.consentText = text
		w.consentLoading = false
	}

	w.step = from + 1
	w.touchLocked()
	w.mu.Unlock()

	w.metrics.ObserveTransition(int(from), "ok")
	logger.Debug(ctx, "Wizard advanced", zap.Int("from", int(from)), zap.Int("to", int(from+1)))
	return nil
}

func (w *Wizard) checkLeaveLocked() error {
	if w.closed {
		return domainerrors.ErrWizardNotStarted
	}
	switch w.step {
	case entities.StepIdentity:
		if !w.capture.HasVideo() {
			if w.capture.CameraFailed() {
				return domainerrors.ErrCameraUnavailable
			}
			return domainerrors.ErrVideoRequired
		}
		if w.data.IsMinorAt(w.now()) && !w.data.HasGuardian() {
			return domainerrors.ErrGuardianRequired
		}
	case entities.StepLegalProtocol:
		if !w.data.AgreedToTerms {
			return domainerrors.ErrTermsNotAccepted
		}
	case entities.StepLogistics:
		return domainerrors.ErrTerminalStep
	}
	return nil
}

// Retreat moves back one step. Step 1 has nowhere to go.
func (w *Wizard) Retreat() error {
	w.transition.Lock()
	defer w.transition.Unlock()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return domainerrors.ErrWizardNotStarted
	}
	if w.step == entities.FirstStep {
		w.metrics.ObserveTransition(int(w.step), "first_step")
		return domainerrors.ErrFirstStep
	}
	w.metrics.ObserveTransition(int(w.step), "back")
	w.step--
	w.touchLocked()
	return nil
}

// SelectPaymentMethod runs the simulated payment for the chosen method.
func (w *Wizard) SelectPaymentMethod(ctx context.Context, method entities.PaymentMethod) error {
	if !method.IsValid() {
		return domainerrors.BadRequest("invalid payment method")
	}

	w.transition.Lock()
	defer w.transition.Unlock()

	w.mu.Lock()
	if w.step != entities.LastStep {
		w.mu.Unlock()
		return domainerrors.ErrNotTerminalStep
	}
	w.paymentProcessed = false
	w.mu.Unlock()

	if err := sleepContext(ctx, w.paymentDelay); err != nil {
		return err
	}

	w.mu.Lock()
	w.paymentMethod = method
	w.paymentProcessed = true
	w.touchLocked()
	w.mu.Unlock()
	logger.Info(ctx, "Simulated payment processed", zap.String("method", string(method)))
	return nil
}

// readyForSubmit returns the processed payment method when the wizard can
// be submitted.
func (w *Wizard) readyForSubmit() (entities.PaymentMethod, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return "", domainerrors.ErrWizardNotStarted
	}
	if w.step != entities.LastStep {
		return "", domainerrors.ErrNotTerminalStep
	}
	if !w.paymentProcessed {
		return "", domainerrors.ErrPaymentNotProcessed
	}
	return w.paymentMethod, nil
}

// ConsentDocument returns the exportable consent term.
func (w *Wizard) ConsentDocument() (entities.ConsentDocument, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.consentText == "" {
		return entities.ConsentDocument{}, domainerrors.ErrConsentNotReady
	}
	return entities.NewConsentDocument(w.data.FullName, w.consentText), nil
}

// Close releases the camera. The wizard rejects further transitions.
func (w *Wizard) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.capture.Release()
}

// Touch records client activity.
func (w *Wizard) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touchLocked()
}

// IdleSince returns the last activity time.
func (w *Wizard) IdleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updatedAt
}

func (w *Wizard) touchLocked() {
	w.updatedAt = w.now()
}

// Snapshot returns the externally visible state.
func (w *Wizard) Snapshot() *entities.WizardSnapshot {
	capture := w.capture.Snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	return &entities.WizardSnapshot{
		Step:             w.step,
		StepTitle:        w.step.Title(),
		Steps:            entities.StepTitles(),
		Data:             cloneDraft(w.data),
		IsMinor:          w.data.IsMinorAt(now),
		Age:              w.data.AgeAt(now),
		ConsentText:      w.consentText,
		ConsentLoading:   w.consentLoading,
		PaymentMethod:    w.paymentMethod,
		PaymentProcessed: w.paymentProcessed,
		Capture:          capture,
		UpdatedAt:        w.updatedAt,
	}
}

func cloneDraft(d entities.EnrollmentData) entities.EnrollmentData {
	d.MissionaryInterestAreas = append([]string{}, d.MissionaryInterestAreas...)
	d.Skills = append([]string{}, d.Skills...)
	d.SpecificConditions = append([]string{}, d.SpecificConditions...)
	return d
}

func transitionOutcome(err error) string {
	switch err {
	case domainerrors.ErrVideoRequired:
		return "video_required"
	case domainerrors.ErrCameraUnavailable:
		return "camera_unavailable"
	case domainerrors.ErrGuardianRequired:
		return "guardian_required"
	case domainerrors.ErrTermsNotAccepted:
		return "terms_required"
	case domainerrors.ErrTerminalStep:
		return "last_step"
	default:
		return "error"
	}
}
