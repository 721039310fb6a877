package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crediflow/internal/config"
	"crediflow/internal/domain/client"
	"crediflow/internal/domain/loan"
	"crediflow/internal/infrastructure/monitoring"
)

const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"

	RecommendApprove = "APPROVE"
	RecommendReject  = "REJECT"
	RecommendReview  = "REVIEW"
)

// Service calls an OpenAI-compatible chat-completions endpoint for a
// textual risk opinion and for collection reminders. Every failure path
// degrades to a deterministic fallback: advisory output is display-only
// and must never surface as an error to the loan core.
type Service struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	cache      *redis.Client
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ loan.AdvisoryProvider = (*Service)(nil)

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type riskPayload struct {
	RiskLevel      string `json:"riskLevel"`
	Score          int    `json:"score"`
	Reasoning      string `json:"reasoning"`
	Recommendation string `json:"recommendation"`
}

func NewService(cfg config.AdvisoryConfig, cache *redis.Client, logger *slog.Logger) *Service {
	enabled := cfg.Enabled && cfg.APIKey != ""
	if cfg.Enabled && cfg.APIKey == "" {
		logger.Warn("Advisory enabled but no API key configured; falling back to canned responses")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		apiKey:     cfg.APIKey,
		apiURL:     cfg.BaseURL,
		model:      cfg.Model,
		enabled:    enabled,
		cache:      cache,
		cacheTTL:   cfg.CacheTTL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "advisoryService")),
	}
}

// AnalyzeLoanRisk produces a non-authoritative risk opinion for a
// prospective or freshly created loan. The returned advisory is always
// usable; the error is informational only.
func (s *Service) AnalyzeLoanRisk(ctx context.Context, c *client.Client, amount float64, termCount int) (*loan.RiskAdvisory, error) {
	if !s.enabled {
		monitoring.RecordAdvisoryRequest("disabled")
		return fallbackAdvisory("AI advisory is not configured; defaulting to manual review."), nil
	}

	cacheKey := fmt.Sprintf("advisory:risk:%s:%.2f:%d", c.ID, amount, termCount)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		monitoring.RecordAdvisoryRequest("cache_hit")
		return cached, nil
	}

	prompt := fmt.Sprintf(`Act as an expert risk analyst for a microfinance institution.
Analyze the following credit application and reply with a JSON object only.

Client:
Name: %s
Monthly income: $%.2f
Internal credit score (0-100): %d

Application:
Amount: $%.2f
Term: %d installments

Business rules:
- If the estimated installment exceeds 30%% of monthly income, risk increases.
- An internal score below 50 is high risk.

Reply with exactly these fields:
{"riskLevel": "LOW"|"MEDIUM"|"HIGH", "score": <0-100, 100 is safest>, "reasoning": <string>, "recommendation": "APPROVE"|"REJECT"|"REVIEW"}`,
		c.Name, c.MonthlyIncome, c.CreditScore, amount, termCount)

	text, err := s.callLLM(ctx, riskSystemPrompt, prompt, &responseFormat{Type: "json_object"})
	if err != nil {
		s.logger.WarnContext(ctx, "Risk analysis call failed, using fallback", slog.Any("error", err))
		monitoring.RecordAdvisoryRequest("failure")
		return fallbackAdvisory("Could not reach the AI advisory service; defaulting to manual review."), nil
	}

	var payload riskPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &payload); err != nil {
		s.logger.WarnContext(ctx, "Risk analysis response was not valid JSON, using fallback", slog.Any("error", err))
		monitoring.RecordAdvisoryRequest("bad_response")
		return fallbackAdvisory("The AI advisory returned an unreadable answer; defaulting to manual review."), nil
	}

	advisory := &loan.RiskAdvisory{
		RiskLevel:      normalizeRiskLevel(payload.RiskLevel),
		Score:          clampScore(payload.Score),
		Reasoning:      payload.Reasoning,
		Recommendation: normalizeRecommendation(payload.Recommendation),
		GeneratedAt:    time.Now(),
	}

	s.cacheSet(ctx, cacheKey, advisory)
	monitoring.RecordAdvisoryRequest("success")
	return advisory, nil
}

// CollectionMessage drafts a short, firm payment reminder for an overdue
// installment. The output is display-only.
func (s *Service) CollectionMessage(ctx context.Context, clientName string, daysOverdue int, amountDue string) (string, error) {
	fallback := fmt.Sprintf("Hi %s, this is a reminder that your payment of %s is %d day(s) overdue. Please settle it as soon as possible. — CrediFlow Team",
		clientName, amountDue, daysOverdue)

	if !s.enabled {
		monitoring.RecordAdvisoryRequest("disabled")
		return fallback, nil
	}

	prompt := fmt.Sprintf(`Write a short, professional and firm WhatsApp message addressed to %s.
Their payment of %s is %d day(s) overdue.
The tone must be respectful but urgent. Do not include generic placeholders; sign as "CrediFlow Team".`,
		clientName, amountDue, daysOverdue)

	text, err := s.callLLM(ctx, collectionSystemPrompt, prompt, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Collection message call failed, using fallback", slog.Any("error", err))
		monitoring.RecordAdvisoryRequest("failure")
		return fallback, nil
	}

	monitoring.RecordAdvisoryRequest("success")
	return strings.TrimSpace(text), nil
}

const riskSystemPrompt = "You are a credit risk analyst for a microfinance lender. " +
	"You reply with strict JSON and base your judgement only on the data provided."

const collectionSystemPrompt = "You are a collections assistant for a microfinance lender. " +
	"You write concise, respectful payment reminders."

func (s *Service) callLLM(ctx context.Context, system, prompt string, format *responseFormat) (string, error) {
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      400,
		ResponseFormat: format,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("advisory API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", err
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty advisory response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (s *Service) cacheGet(ctx context.Context, key string) *loan.RiskAdvisory {
	if s.cache == nil {
		return nil
	}
	val, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var advisory loan.RiskAdvisory
	if err := json.Unmarshal([]byte(val), &advisory); err != nil {
		return nil
	}
	return &advisory
}

func (s *Service) cacheSet(ctx context.Context, key string, advisory *loan.RiskAdvisory) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(advisory)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.DebugContext(ctx, "Failed to cache advisory", slog.Any("error", err))
	}
}

func fallbackAdvisory(reason string) *loan.RiskAdvisory {
	return &loan.RiskAdvisory{
		RiskLevel:      RiskMedium,
		Score:          50,
		Reasoning:      reason,
		Recommendation: RecommendReview,
		GeneratedAt:    time.Now(),
	}
}

func normalizeRiskLevel(level string) string {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case RiskLow:
		return RiskLow
	case RiskHigh:
		return RiskHigh
	default:
		return RiskMedium
	}
}

func normalizeRecommendation(rec string) string {
	switch strings.ToUpper(strings.TrimSpace(rec)) {
	case RecommendApprove:
		return RecommendApprove
	case RecommendReject:
		return RecommendReject
	default:
		return RecommendReview
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
