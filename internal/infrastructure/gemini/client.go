package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"chamado.backend/internal/domain/entities"
	"chamado.backend/internal/infrastructure/metrics"
	"chamado.backend/pkg/logger"
)

// PlaceholderAPIKey is the sample value shipped in env templates.
const PlaceholderAPIKey = "PLACEHOLDER_API_KEY"

const DefaultModel = "gemini-1.5-flash"

// Fallback texts returned instead of an error.
const (
	ConsentMissingKey  = "Configuração de IA pendente. Por favor, insira a VITE_GEMINI_API_KEY no arquivo .env.local."
	ConsentEmpty       = "Erro ao gerar o termo."
	ConsentFailed      = "Erro de conexão com o serviço jurídico de IA."
	InsightsMissingKey = "Insights indisponíveis (Chave de IA não configurada)."
	InsightsEmpty      = "Sem insights no momento."
	InsightsFailed     = "Não foi possível carregar os insights estratégicos."
)

const (
	kindConsent  = "consent"
	kindInsights = "insights"
)

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client produces consent terms and admin insights. It never returns an
// error: every failure maps to a fixed fallback text.
type Client struct {
	apiKey  string
	model   string
	timeout time.Duration
	metrics *metrics.Metrics

	mu       sync.Mutex
	sdk      *genai.Client
	generate generateFunc
}

var newSDKClient = func(ctx context.Context, apiKey string) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// NewClient creates a client. The SDK client is created on first use.
func NewClient(apiKey, model string, timeout time.Duration, m *metrics.Metrics) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		timeout: timeout,
		metrics: m,
	}
	c.generate = c.generateWithSDK
	return c
}

// Configured reports whether a usable key is present.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderAPIKey
}

// GenerateConsentTerm drafts the consent term for the participant.
func (c *Client) GenerateConsentTerm(ctx context.Context, draft entities.EnrollmentData) string {
	return c.run(ctx, kindConsent, ConsentPrompt(draft), ConsentMissingKey, ConsentEmpty, ConsentFailed)
}

// GenerateAdminInsights summarizes the dashboard aggregate.
func (c *Client) GenerateAdminInsights(ctx context.Context, stats entities.InsightStats) string {
	return c.run(ctx, kindInsights, InsightsPrompt(stats), InsightsMissingKey, InsightsEmpty, InsightsFailed)
}

func (c *Client) run(ctx context.Context, kind, prompt, missingKey, empty, failed string) string {
	start := time.Now()
	if !c.Configured() {
		logger.Warn(ctx, "Generative AI key not configured", zap.String("kind", kind))
		c.metrics.ObserveGeneration(kind, "placeholder", start)
		return missingKey
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		logger.Error(ctx, "Generative AI request failed", zap.String("kind", kind), zap.Error(err))
		c.metrics.ObserveGeneration(kind, "error", start)
		return failed
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn(ctx, "Generative AI returned empty text", zap.String("kind", kind))
		c.metrics.ObserveGeneration(kind, "empty", start)
		return empty
	}
	c.metrics.ObserveGeneration(kind, "ok", start)
	return text
}

func (c *Client) generateWithSDK(ctx context.Context, prompt string) (string, error) {
	sdk, err := c.client(ctx)
	if err != nil {
		return "", err
	}
	resp, err := sdk.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp), nil
}

func (c *Client) client(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sdk != nil {
		return c.sdk, nil
	}
	sdk, err := newSDKClient(ctx, c.apiKey)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.sdk = sdk
	return sdk, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// ConsentPrompt renders the consent request for a draft.
func ConsentPrompt(d entities.EnrollmentData) string {
	return fmt.Sprintf(`Gere um Termo de Consentimento e Responsabilidade altamente profissional e detalhado para o programa "Chamado UOU MOVEMENT".
Este é um treinamento intensivo de simulação e preparo missionário para contextos de risco, envolvendo desafios físicos extremos, privação de sono, estresse emocional e exercícios de prontidão espiritual.

DADOS DO RECRUTA:
Nome: %s
Nome Social: %s
Nascimento: %s
CPF: %s
Tipo Sanguíneo: %s
Condições de Saúde: %s
Alergias: %s

O termo deve seguir as normas da LGPD brasileira e incluir cláusulas específicas sobre:
1. Natureza da Atividade: Treinamento tático e espiritual de alta intensidade.
2. Declaração de Aptidão Física: O participante assume os riscos de lesões e cansaço extremo.
3. Tratamento de Dados (LGPD): Finalidade de segurança médica e logística.
4. Autorização de Uso de Imagem e Voz: Para fins de registro ministerial do UOU MOVEMENT.
5. Confidencialidade: Proteção de locais e protocolos de segurança ensinados.
6. Emergências Médicas: Autorização para intervenção e transporte em caso de necessidade.

Formate como Markdown, com tom sério, tático e jurídico.`,
		d.FullName,
		orDefault(d.Nickname, "Não informado"),
		d.BirthDate,
		d.CPF,
		d.BloodType,
		orDefault(d.HealthConditions, "Nenhuma declarada"),
		orDefault(d.Allergies, "Nenhuma declarada"),
	)
}

// InsightsPrompt renders the analyst request for the dashboard aggregate.
func InsightsPrompt(stats entities.InsightStats) string {
	raw, _ := json.Marshal(stats)
	return fmt.Sprintf(`Atue como um analista de dados estratégico. Analise os seguintes dados do SaaS Chamado UOU MOVEMENT:
%s
Forneça 3 insights rápidos e uma recomendação executiva curta para melhorar a conversão de inscrições e o engajamento espiritual.
Mantenha o tom respeitoso e focado em resultados ministeriais.`, raw)
}
