package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamado.backend/internal/domain/entities"
	"chamado.backend/internal/infrastructure/media"
)

type blockingConsent struct {
	release chan struct{}
}

func (b *blockingConsent) GenerateConsentTerm(ctx context.Context, _ entities.EnrollmentData) string {
	<-b.release
	return "termo"
}

func TestWizard_ConsentLoadingVisibleDuringGeneration(t *testing.T) {
	gen := &blockingConsent{release: make(chan struct{})}
	w := NewWizard("s1", "Ana", gen, NewCaptureSession(media.NewRelaySource(0), nil), 0, nil)
	w.step = entities.StepHealth

	done := make(chan error, 1)
	go func() { done <- w.Advance(context.Background()) }()

	assert.Eventually(t, func() bool { return w.Snapshot().ConsentLoading }, time.Second, time.Millisecond)
	assert.Equal(t, entities.StepHealth, w.Snapshot().Step)
	require.NoError(t, w.PatchDraft([]byte(`{"city":"Recife"}`)))

	close(gen.release)
	require.NoError(t, <-done)

	snap := w.Snapshot()
	assert.Equal(t, entities.StepLegalProtocol, snap.Step)
	assert.Equal(t, "termo", snap.ConsentText)
	assert.False(t, snap.ConsentLoading)
	assert.Equal(t, "Recife", snap.Data.City)
}

func TestWizard_PaymentDelayHonoursContext(t *testing.T) {
	w := NewWizard("s1", "Ana", nil, NewCaptureSession(media.NewRelaySource(0), nil), time.Hour, nil)
	w.step = entities.StepLogistics

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.SelectPaymentMethod(ctx, entities.PaymentMethodBoleto), context.Canceled)
	assert.False(t, w.Snapshot().PaymentProcessed)
}

func TestWizard_ClosedRejectsTransitions(t *testing.T) {
	w := NewWizard("s1", "Ana", nil, NewCaptureSession(media.NewRelaySource(0), nil), 0, nil)
	w.step = entities.StepBaseInfo
	w.Close()

	assert.Error(t, w.Advance(context.Background()))
	assert.Error(t, w.Retreat())
	_, err := w.readyForSubmit()
	assert.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, 0), context.Canceled)
}

func TestWizard_DraftIsIndependentCopy(t *testing.T) {
	w := NewWizard("s1", "Ana", nil, NewCaptureSession(media.NewRelaySource(0), nil), 0, nil)
	require.NoError(t, w.PatchDraft([]byte(`{"skills":["Música"]}`)))

	d := w.Draft()
	d.Skills[0] = "changed"
	assert.Equal(t, []string{"Música"}, w.Draft().Skills)
}

func TestWizard_PatchDraftFlags(t *testing.T) {
	w := NewWizard("s1", "Ana", nil, NewCaptureSession(media.NewRelaySource(0), nil), 0, nil)

	d := w.Draft()
	assert.False(t, d.Baptized)
	assert.False(t, d.HasPhysicalConstraint)

	require.NoError(t, w.PatchDraft([]byte(`{"baptized":true,"baptizedInHolySpirit":true,"pastoralRecommendation":true,"hasPhysicalConstraint":true}`)))
	d = w.Draft()
	assert.True(t, d.Baptized)
	assert.True(t, d.BaptizedInHolySpirit)
	assert.True(t, d.PastoralRecommendation)
	assert.True(t, d.HasPhysicalConstraint)
	assert.Equal(t, "Ana", d.FullName)

	require.NoError(t, w.PatchDraft([]byte(`{"baptized":false}`)))
	assert.False(t, w.Draft().Baptized)
	assert.True(t, w.Draft().BaptizedInHolySpirit)

	assert.Error(t, w.PatchDraft([]byte(`{"baptized":"sim"}`)))
	assert.False(t, w.Draft().Baptized)
}
