package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/logger"
)

// EnrollmentSessions is the part of the session controller the wizard
// registry needs.
type EnrollmentSessions interface {
	GetSession(ctx context.Context, sessionID string) (*entities.Session, error)
	Navigate(ctx context.Context, sessionID string, view entities.AppView) (*entities.Session, error)
	CompleteEnrollment(ctx context.Context, sessionID string, method entities.PaymentMethod) (*entities.UserProfile, error)
}

// EnrollmentUsecase keeps one wizard per session.
type EnrollmentUsecase struct {
	mu      sync.Mutex
	wizards map[string]*Wizard

	sessions     EnrollmentSessions
	consent      ConsentGenerator
	media        repositories.MediaSource
	paymentDelay time.Duration
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewEnrollmentUsecase creates a new enrollment usecase
func NewEnrollmentUsecase(
	sessions EnrollmentSessions,
	consent ConsentGenerator,
	media repositories.MediaSource,
	paymentDelay time.Duration,
	m *metrics.Metrics,
) *EnrollmentUsecase {
	return &EnrollmentUsecase{
		wizards:      make(map[string]*Wizard),
		sessions:     sessions,
		consent:      consent,
		media:        media,
		paymentDelay: paymentDelay,
		metrics:      m,
		now:          time.Now,
	}
}

// Start opens the session's wizard, or resumes the open one.
func (u *EnrollmentUsecase) Start(ctx context.Context, sessionID string) (*entities.WizardSnapshot, error) {
	session, err := u.sessions.Navigate(ctx, sessionID, entities.ViewEnrollment)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	w, ok := u.wizards[sessionID]
	if !ok {
		w = NewWizard(sessionID, session.Profile.Name, u.consent, NewCaptureSession(u.media, u.metrics), u.paymentDelay, u.metrics)
		w.now = u.now
		u.wizards[sessionID] = w
		logger.Info(ctx, "Enrollment wizard opened", zap.String("session_id", sessionID))
	}
	n := len(u.wizards)
	u.mu.Unlock()

	u.metrics.SetActiveWizards(n)
	w.Touch()
	return w.Snapshot(), nil
}

// Wizard returns the open wizard of a session.
func (u *EnrollmentUsecase) Wizard(sessionID string) (*Wizard, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	w, ok := u.wizards[sessionID]
	if !ok {
		return nil, domainerrors.ErrWizardNotStarted
	}
	return w, nil
}

func (u *EnrollmentUsecase) active(sessionID string) (*Wizard, error) {
	w, err := u.Wizard(sessionID)
	if err != nil {
		return nil, err
	}
	w.Touch()
	return w, nil
}

func (u *EnrollmentUsecase) Snapshot(ctx context.Context, sessionID string) (*entities.WizardSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// PatchDraft merges partial enrollment data into the draft.
func (u *EnrollmentUsecase) PatchDraft(ctx context.Context, sessionID string, patch []byte) (*entities.WizardSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	if err := w.PatchDraft(patch); err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// Next advances the wizard one step.
func (u *EnrollmentUsecase) Next(ctx context.Context, sessionID string) (*entities.WizardSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	if err := w.Advance(ctx); err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// Back moves the wizard one step back.
func (u *EnrollmentUsecase) Back(ctx context.Context, sessionID string) (*entities.WizardSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	if err := w.Retreat(); err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// SelectPaymentMethod runs the simulated payment at the last step.
func (u *EnrollmentUsecase) SelectPaymentMethod(ctx context.Context, sessionID string, method entities.PaymentMethod) (*entities.WizardSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	if err := w.SelectPaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return w.Snapshot(), nil
}

// Submit completes the enrollment and closes the wizard.
func (u *EnrollmentUsecase) Submit(ctx context.Context, sessionID string) (*entities.UserProfile, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}

	w.transition.Lock()
	defer w.transition.Unlock()

	method, err := w.readyForSubmit()
	if err != nil {
		return nil, err
	}
	profile, err := u.sessions.CompleteEnrollment(ctx, sessionID, method)
	if err != nil {
		return nil, err
	}
	u.remove(sessionID, w)
	return profile, nil
}

// ConsentDocument returns the exportable consent term of the draft.
func (u *EnrollmentUsecase) ConsentDocument(ctx context.Context, sessionID string) (entities.ConsentDocument, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return entities.ConsentDocument{}, err
	}
	return w.ConsentDocument()
}

// Close discards the session's wizard.
func (u *EnrollmentUsecase) Close(ctx context.Context, sessionID string) error {
	w, err := u.Wizard(sessionID)
	if err != nil {
		return err
	}
	u.remove(sessionID, w)
	logger.Info(ctx, "Enrollment wizard closed", zap.String("session_id", sessionID))
	return nil
}

// CloseSession closes the wizard of a session if one is open.
func (u *EnrollmentUsecase) CloseSession(ctx context.Context, sessionID string) {
	if err := u.Close(ctx, sessionID); err != nil && !errors.Is(err, domainerrors.ErrWizardNotStarted) {
		logger.Warn(ctx, "Failed to close wizard", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (u *EnrollmentUsecase) remove(sessionID string, w *Wizard) {
	u.mu.Lock()
	if cur, ok := u.wizards[sessionID]; ok && cur == w {
		delete(u.wizards, sessionID)
	}
	n := len(u.wizards)
	u.mu.Unlock()

	w.Close()
	u.metrics.SetActiveWizards(n)
}

// ReleaseIdle closes wizards without activity for longer than ttl and
// returns how many were closed.
func (u *EnrollmentUsecase) ReleaseIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := u.now().Add(-ttl)

	u.mu.Lock()
	var idle []*Wizard
	for id, w := range u.wizards {
		if w.IdleSince().Before(cutoff) {
			idle = append(idle, w)
			delete(u.wizards, id)
		}
	}
	n := len(u.wizards)
	u.mu.Unlock()

	for _, w := range idle {
		w.Close()
		logger.Info(ctx, "Idle enrollment wizard released", zap.String("session_id", w.SessionID()))
	}
	u.metrics.SetActiveWizards(n)
	return len(idle)
}

// ActiveCount returns the number of open wizards.
func (u *EnrollmentUsecase) ActiveCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.wizards)
}

// AcquireCamera opens the camera with the client's permission result.
func (u *EnrollmentUsecase) AcquireCamera(ctx context.Context, sessionID string, grant entities.DeviceGrant) (*entities.CaptureSnapshot, error) {
	return u.capture(sessionID, func(c *CaptureSession) error { return c.Acquire(ctx, grant) })
}

func (u *EnrollmentUsecase) StartRecording(ctx context.Context, sessionID string) (*entities.CaptureSnapshot, error) {
	return u.capture(sessionID, func(c *CaptureSession) error { return c.StartRecording(ctx) })
}

func (u *EnrollmentUsecase) AppendChunk(ctx context.Context, sessionID string, data []byte) (*entities.CaptureSnapshot, error) {
	return u.capture(sessionID, func(c *CaptureSession) error { return c.AppendChunk(data) })
}

func (u *EnrollmentUsecase) StopRecording(ctx context.Context, sessionID string) (*entities.CaptureSnapshot, error) {
	return u.capture(sessionID, func(c *CaptureSession) error { return c.StopRecording(ctx) })
}

// ResetCapture discards the artifact and requests the camera again.
func (u *EnrollmentUsecase) ResetCapture(ctx context.Context, sessionID string, grant entities.DeviceGrant) (*entities.CaptureSnapshot, error) {
	return u.capture(sessionID, func(c *CaptureSession) error { return c.Reset(ctx, grant) })
}

func (u *EnrollmentUsecase) CaptureSnapshot(ctx context.Context, sessionID string) (*entities.CaptureSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	snap := w.Capture().Snapshot()
	return &snap, nil
}

// Video returns the captured artifact with its data.
func (u *EnrollmentUsecase) Video(ctx context.Context, sessionID string) (*entities.VideoArtifact, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	v, ok := w.Capture().Video()
	if !ok {
		return nil, domainerrors.ErrVideoRequired
	}
	return v, nil
}

// capture runs op against the wizard's capture. Capture operations are only
// available on the identity step.
func (u *EnrollmentUsecase) capture(sessionID string, op func(*CaptureSession) error) (*entities.CaptureSnapshot, error) {
	w, err := u.active(sessionID)
	if err != nil {
		return nil, err
	}
	if w.Step() != entities.StepIdentity {
		return nil, domainerrors.ErrInvalidCaptureState
	}
	c := w.Capture()
	if err := op(c); err != nil {
		return nil, err
	}
	snap := c.Snapshot()
	return &snap, nil
}
