// Package advisor produces AI-generated advisory text for a symbol from its
// current quote and recent price history. It is an outer boundary: nothing in
// the monitoring core depends on it.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	apperrors "stock-sentry/internal/errors"
	"stock-sentry/internal/models"
)

const systemPrompt = `You are a cautious financial analyst. Given a stock's current quote and recent daily history, give a short assessment of momentum, support/resistance levels and notable risks. Always finish with a reminder that this is not financial advice.`

// Completer abstracts the LLM so tests can stub it.
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClient implements Completer using the OpenAI API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates a new OpenAI completer.
func NewOpenAIClient(apiKey, model string, maxTokens int) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

// CompleteWithSystem sends a prompt with system message to the LLM.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Advisor turns market data into advisory text.
type Advisor struct {
	llm    Completer
	logger zerolog.Logger
}

// New creates an Advisor. A nil completer yields a disabled advisor that
// returns ErrAdvisorDisabled from Advise.
func New(llm Completer, logger zerolog.Logger) *Advisor {
	return &Advisor{
		llm:    llm,
		logger: logger.With().Str("component", "advisor").Logger(),
	}
}

// Enabled reports whether an LLM is configured.
func (a *Advisor) Enabled() bool { return a.llm != nil }

// Advise generates advisory text for a symbol.
func (a *Advisor) Advise(ctx context.Context, quote *models.Quote, history []models.Candle) (string, error) {
	if a.llm == nil {
		return "", apperrors.ErrAdvisorDisabled
	}

	prompt := buildPrompt(quote, history)
	advice, err := a.llm.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return "", apperrors.Wrap(err, "generating advice")
	}

	a.logger.Debug().Str("symbol", quote.Symbol).Int("chars", len(advice)).Msg("Advice generated")
	return advice, nil
}

// buildPrompt summarizes the quote plus simple indicators from the history so
// the model sees numbers, not raw candle dumps.
func buildPrompt(quote *models.Quote, history []models.Candle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\n", quote.Symbol)
	fmt.Fprintf(&b, "Current price: %.2f %s\n", quote.Price, quote.Currency)
	fmt.Fprintf(&b, "Change today: %+.2f (%+.2f%%)\n", quote.Change, quote.ChangePercent)
	if quote.Volume > 0 {
		fmt.Fprintf(&b, "Volume: %d\n", quote.Volume)
	}
	if quote.Open > 0 {
		fmt.Fprintf(&b, "Open/High/Low: %.2f / %.2f / %.2f\n", quote.Open, quote.High, quote.Low)
	}

	if len(history) > 0 {
		high, low := history[0].High, history[0].Low
		var closeSum float64
		for _, c := range history {
			if c.High > high {
				high = c.High
			}
			if c.Low < low {
				low = c.Low
			}
			closeSum += c.Close
		}
		fmt.Fprintf(&b, "\nLast %d sessions:\n", len(history))
		fmt.Fprintf(&b, "Period high/low: %.2f / %.2f\n", high, low)
		fmt.Fprintf(&b, "Average close: %.2f\n", closeSum/float64(len(history)))
		fmt.Fprintf(&b, "Period move: %+.2f%%\n",
			(history[len(history)-1].Close-history[0].Close)/history[0].Close*100)
	}

	b.WriteString("\nGive a concise assessment.")
	return b.String()
}
