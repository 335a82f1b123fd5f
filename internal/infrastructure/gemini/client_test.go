package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"chamado.backend/internal/domain/entities"
	"chamado.backend/internal/infrastructure/metrics"
)

func stubbed(key string, fn generateFunc) (*Client, *metrics.Metrics) {
	m := metrics.New()
	c := NewClient(key, "", time.Second, m)
	c.generate = fn
	return c, m
}

func TestClient_MissingKey(t *testing.T) {
	called := false
	fn := func(context.Context, string) (string, error) {
		called = true
		return "x", nil
	}

	for _, key := range []string{"", "  ", PlaceholderAPIKey} {
		c, m := stubbed(key, fn)
		assert.Equal(t, ConsentMissingKey, c.GenerateConsentTerm(context.Background(), entities.EnrollmentData{}))
		assert.Equal(t, InsightsMissingKey, c.GenerateAdminInsights(context.Background(), entities.InsightStats{}))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationTotal.WithLabelValues("consent", "placeholder")))
	}
	assert.False(t, called)
}

func TestClient_Fallbacks(t *testing.T) {
	failing := func(context.Context, string) (string, error) { return "", errors.New("boom") }
	blank := func(context.Context, string) (string, error) { return "  \n", nil }

	c, m := stubbed("key", failing)
	assert.Equal(t, ConsentFailed, c.GenerateConsentTerm(context.Background(), entities.EnrollmentData{}))
	assert.Equal(t, InsightsFailed, c.GenerateAdminInsights(context.Background(), entities.InsightStats{}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationTotal.WithLabelValues("insights", "error")))

	c, _ = stubbed("key", blank)
	assert.Equal(t, ConsentEmpty, c.GenerateConsentTerm(context.Background(), entities.EnrollmentData{}))
	assert.Equal(t, InsightsEmpty, c.GenerateAdminInsights(context.Background(), entities.InsightStats{}))
}

func TestClient_Success(t *testing.T) {
	var prompt string
	c, _ := stubbed("key", func(ctx context.Context, p string) (string, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		prompt = p
		return "# TERMO", nil
	})

	draft := entities.NewEnrollmentData("Maria Souza")
	draft.BirthDate = "2000-01-02"
	draft.CPF = "123"
	draft.BloodType = "O+"

	assert.Equal(t, "# TERMO", c.GenerateConsentTerm(context.Background(), draft))
	assert.Contains(t, prompt, "Nome: Maria Souza")
	assert.Contains(t, prompt, "Nome Social: Não informado")
	assert.Contains(t, prompt, "Alergias: Nenhuma declarada")
	assert.Contains(t, prompt, "6. Emergências Médicas")
}

func TestInsightsPrompt(t *testing.T) {
	p := InsightsPrompt(entities.InsightStats{TotalInscritos: 3, TotalPagos: 321, MetaMissao: 500})
	assert.Contains(t, p, `{"totalInscritos":3,"totalPagos":321,"metaMissao":500}`)
}

func TestClient_SDKCreationError(t *testing.T) {
	orig := newSDKClient
	t.Cleanup(func() { newSDKClient = orig })
	newSDKClient = func(context.Context, string) (*genai.Client, error) {
		return nil, errors.New("no network")
	}

	c := NewClient("key", "custom-model", time.Second, nil)
	assert.Equal(t, "custom-model", c.model)
	assert.Equal(t, ConsentFailed, c.GenerateConsentTerm(context.Background(), entities.EnrollmentData{}))
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "a"}, nil, {Text: "b"}}},
		}},
	}
	require.Equal(t, "ab", responseText(resp))
}
