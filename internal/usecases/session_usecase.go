package usecases

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/crypto"
	"chamado.backend/pkg/jwt"
	"chamado.backend/pkg/logger"
	"chamado.backend/pkg/utils"
)

// Profile origins reported in metrics.
const (
	originStore       = "store"
	originAccount     = "account"
	originSynthesized = "synthesized"
)

var (
	newParticipantID = crypto.GenerateShortID
	hashPassword     = crypto.HashPassword
	newSessionID     = utils.NewSessionID
)

// WizardCloser tears down the enrollment wizard of a session.
type WizardCloser interface {
	CloseSession(ctx context.Context, sessionID string)
}

// SessionUsecase owns the active profile of each session and keeps the
// session copies in step with the identity store.
type SessionUsecase struct {
	// mu serializes every mutation of sessions and the identity store.
	mu sync.Mutex

	identities repositories.IdentityStore
	accounts   repositories.AccountRepository
	sessions   repositories.SessionRepository
	jwtService *jwt.JWTService
	authDelay  time.Duration
	metrics    *metrics.Metrics
	wizards    WizardCloser
	now        func() time.Time
}

// NewSessionUsecase creates a new session usecase
func NewSessionUsecase(
	identities repositories.IdentityStore,
	accounts repositories.AccountRepository,
	sessions repositories.SessionRepository,
	jwtService *jwt.JWTService,
	authDelay time.Duration,
	m *metrics.Metrics,
) *SessionUsecase {
	return &SessionUsecase{
		identities: identities,
		accounts:   accounts,
		sessions:   sessions,
		jwtService: jwtService,
		authDelay:  authDelay,
		metrics:    m,
		now:        time.Now,
	}
}

// AttachWizards registers the wizard registry torn down on logout.
func (u *SessionUsecase) AttachWizards(w WizardCloser) {
	u.wizards = w
}

// Authenticate signs a participant in after the simulated delay. Credentials
// are not verified.
func (u *SessionUsecase) Authenticate(ctx context.Context, input *entities.AuthInput) (*entities.AuthResponse, error) {
	if input == nil {
		return nil, domainerrors.ErrBadRequest
	}
	mode := input.Mode
	if mode == "" {
		mode = entities.AuthModeLogin
	}
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	switch {
	case mode != entities.AuthModeLogin && mode != entities.AuthModeSignup:
		return nil, domainerrors.BadRequest("invalid auth mode")
	case email == "":
		return nil, domainerrors.BadRequest("email is required")
	case mode == entities.AuthModeSignup && name == "":
		return nil, domainerrors.BadRequest("name is required")
	}

	if err := sleepContext(ctx, u.authDelay); err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	profile, origin, err := u.resolveProfile(ctx, mode, name, email, input.Password)
	if err != nil {
		return nil, err
	}

	now := u.now()
	session := &entities.Session{
		ID:        newSessionID(),
		Profile:   profile,
		View:      entities.ViewDashboard,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	resp, err := u.issueTokens(session)
	if err != nil {
		return nil, err
	}
	u.metrics.IncAuth(string(mode), origin)
	logger.Info(ctx, "Session authenticated",
		zap.String("session_id", session.ID),
		zap.String("user_id", profile.ID),
		zap.String("mode", string(mode)),
		zap.String("origin", origin),
	)
	return resp, nil
}

func (u *SessionUsecase) resolveProfile(ctx context.Context, mode entities.AuthMode, name, email, password string) (*entities.UserProfile, string, error) {
	stored, err := u.identities.FindByEmail(ctx, email)
	if err == nil {
		return stored.Clone(), originStore, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, "", err
	}

	account, err := u.accounts.FindByEmail(ctx, email)
	if err == nil {
		return account.UserProfile.Clone(), originAccount, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, "", err
	}

	id, err := newParticipantID()
	if err != nil {
		return nil, "", err
	}
	if mode == entities.AuthModeLogin {
		name = entities.DefaultLoginName
	}
	profile := &entities.UserProfile{
		ID:               id,
		Name:             name,
		Email:            email,
		Role:             entities.RoleFromEmail(email),
		EnrollmentStatus: entities.EnrollmentPending,
		PaymentStatus:    entities.PaymentUnpaid,
		AvatarURL:        entities.AvatarURL(email, 100),
	}

	if mode == entities.AuthModeSignup {
		hash, err := hashPassword(password)
		if err != nil {
			return nil, "", err
		}
		account := &entities.Account{
			UserProfile:  *profile.Clone(),
			PasswordHash: hash,
			CreatedAt:    u.now(),
		}
		if err := u.accounts.Append(ctx, account); err != nil {
			return nil, "", err
		}
	}
	return profile, originSynthesized, nil
}

func (u *SessionUsecase) issueTokens(session *entities.Session) (*entities.AuthResponse, error) {
	p := session.Profile
	pair, err := u.jwtService.GenerateTokenPair(session.ID, p.ID, p.Email, string(p.Role))
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SessionID:    session.ID,
		User:         p.Clone(),
	}, nil
}

// RefreshToken issues a new token pair for a live session.
func (u *SessionUsecase) RefreshToken(ctx context.Context, refreshToken string) (*entities.AuthResponse, error) {
	claims, err := u.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, domainerrors.ErrUnauthorized
	}
	session, err := u.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized
	}
	return u.issueTokens(session)
}

// GetSession returns an authenticated session.
func (u *SessionUsecase) GetSession(ctx context.Context, sessionID string) (*entities.Session, error) {
	session, err := u.sessions.Get(ctx, sessionID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, domainerrors.ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	if !session.Authenticated() {
		return nil, domainerrors.ErrNoActiveSession
	}
	return session, nil
}

// Logout closes the session's wizard and removes the session. Unknown or
// already closed sessions succeed.
func (u *SessionUsecase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if u.wizards != nil {
		u.wizards.CloseSession(ctx, sessionID)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	session, err := u.sessions.Get(ctx, sessionID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	session.Profile = nil
	session.View = entities.ViewDashboard
	if err := u.sessions.Delete(ctx, session.ID); err != nil {
		return err
	}
	logger.Info(ctx, "Session logged out", zap.String("session_id", sessionID))
	return nil
}

// CompleteEnrollment marks the active profile as REVIEWING and PAID, writes
// it to the identity store and returns the session to the dashboard. Without
// an active profile it does nothing and returns nil.
func (u *SessionUsecase) CompleteEnrollment(ctx context.Context, sessionID string, method entities.PaymentMethod) (*entities.UserProfile, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	session, err := u.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if !session.Authenticated() {
		logger.Warn(ctx, "Enrollment completion without active profile", zap.String("session_id", sessionID))
		return nil, nil
	}

	updated := session.Profile.Clone()
	updated.EnrollmentStatus = entities.EnrollmentReviewing
	updated.PaymentStatus = entities.PaymentPaid
	if err := u.identities.Upsert(ctx, updated); err != nil {
		return nil, err
	}

	if err := u.syncSessions(ctx, updated.ID, func(p *entities.UserProfile) {
		*p = *updated.Clone()
	}); err != nil {
		return nil, err
	}

	session.Profile = updated.Clone()
	session.View = entities.ViewDashboard
	session.UpdatedAt = u.now()
	if err := u.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	u.metrics.IncEnrollmentCompleted()
	logger.Info(ctx, "Enrollment completed",
		zap.String("user_id", updated.ID),
		zap.String("payment_method", string(method)),
	)
	return updated, nil
}

// SetEnrollmentStatus changes a record's enrollment status in the store and
// in every live session of that user.
func (u *SessionUsecase) SetEnrollmentStatus(ctx context.Context, userID string, status entities.EnrollmentStatus) (*entities.UserProfile, error) {
	if !status.IsValid() {
		return nil, domainerrors.ErrInvalidStatus
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	updated, err := u.identities.Update(ctx, userID, func(p *entities.UserProfile) {
		p.EnrollmentStatus = status
	})
	if err != nil {
		return nil, err
	}
	if err := u.syncSessions(ctx, userID, func(p *entities.UserProfile) {
		p.EnrollmentStatus = status
	}); err != nil {
		return nil, err
	}

	u.metrics.IncStatusChange(string(status))
	logger.Info(ctx, "Enrollment status changed", zap.String("user_id", userID), zap.String("status", string(status)))
	return updated, nil
}

func (u *SessionUsecase) syncSessions(ctx context.Context, userID string, apply func(*entities.UserProfile)) error {
	live, err := u.sessions.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, s := range live {
		apply(s.Profile)
		s.UpdatedAt = u.now()
		if err := u.sessions.Save(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Navigate switches the session's view. The view must be in the role's
// menu, and enrollment requires a completed briefing.
func (u *SessionUsecase) Navigate(ctx context.Context, sessionID string, view entities.AppView) (*entities.Session, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	session, err := u.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !entities.ViewAllowed(session.Profile.Role, view) {
		return nil, domainerrors.ErrViewNotAllowed
	}
	if view == entities.ViewEnrollment && !session.Briefing.Completed {
		return nil, domainerrors.ErrBriefingRequired
	}
	session.View = view
	session.UpdatedAt = u.now()
	if err := u.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordBriefingProgress applies one playback report of the briefing video.
// A forward jump of more than two seconds is rejected and the client is told
// where to seek back to.
func (u *SessionUsecase) RecordBriefingProgress(ctx context.Context, sessionID string, currentTime, duration float64, ended bool) (*entities.BriefingUpdate, error) {
	if currentTime < 0 || duration < 0 {
		return nil, domainerrors.BadRequest("invalid playback position")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	session, err := u.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	b := &session.Briefing
	update := &entities.BriefingUpdate{}
	position := currentTime
	if currentTime > b.LastTime+entities.BriefingMaxSeekSeconds {
		update.Rejected = true
		update.SeekTo = b.LastTime
		position = b.LastTime
	} else {
		b.LastTime = currentTime
	}

	if duration > 0 {
		b.Progress = position / duration * 100
		if b.Progress >= entities.BriefingCompletePercent {
			b.Completed = true
		}
	}
	if ended && !update.Rejected {
		b.Completed = true
		b.Progress = 100
	}

	session.UpdatedAt = u.now()
	if err := u.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	update.BriefingProgress = *b
	return update, nil
}
