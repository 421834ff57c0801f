package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/bachngocs/support-chatbot-be/config"
	"github.com/bachngocs/support-chatbot-be/types"
)

const systemInstructions = "You are a friendly customer support assistant. " +
	"Answer concisely and accurately. When the provided knowledge base " +
	"entries cover the question, base your answer on them. If you do not " +
	"know the answer, say so and suggest contacting a human agent."

// quotaPhrases is the fallback classification for backends that only
// surface plain error strings.
var quotaPhrases = []string{
	"quota exceeded",
	"rate limit",
	"too many requests",
	"resource exhausted",
}

// TierGateway is an AIService that masks quota exhaustion behind an
// ordered list of model tiers, highest quality first. A quota error moves
// the cursor to the next cheaper tier; a success on a degraded tier
// schedules a return to the top tier after a cooldown. Any other error
// propagates unchanged so misconfiguration stays visible.
//
// The cursor is shared by all requests. A burst of concurrent calls can
// switch tiers more often than strictly necessary, but the index is never
// invalid.
type TierGateway struct {
	backend  CompletionBackend
	tiers    []config.ModelTier
	cooldown time.Duration
	logger   *zap.Logger

	mu sync.Mutex
	// current indexes tiers; 0 is the top tier.
	current int
	// degradedSuccessAt is the time of the first success on a degraded
	// tier since the last reset; zero means no reset is scheduled.
	degradedSuccessAt time.Time
	// lastFailureAt records the last all-tiers-exhausted event.
	lastFailureAt time.Time

	now func() time.Time
}

func NewTierGateway(backend CompletionBackend, tiers []config.ModelTier, cooldown time.Duration, logger *zap.Logger) (*TierGateway, error) {
	if len(tiers) == 0 {
		return nil, errors.New("no model tiers configured")
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TierGateway{
		backend:  backend,
		tiers:    tiers,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (g *TierGateway) Complete(ctx context.Context, message string, contextText string) (*types.CompletionResult, error) {
	g.maybeResetToTop()
	prompt := buildPrompt(message, contextText)

	// Bounded by the tier count, so a racing reset cannot loop forever.
	for attempt := 0; attempt < len(g.tiers); attempt++ {
		index, tier := g.currentTier()

		text, err := g.backend.Generate(ctx, tier.Name, prompt)
		if err == nil {
			if index > 0 {
				g.scheduleReset()
			}
			return &types.CompletionResult{Text: text, Model: tier.Name, Tier: tier.Label}, nil
		}

		if !IsQuotaError(err) {
			return nil, err
		}

		g.logger.Warn("model tier out of quota",
			zap.String("model", tier.Name),
			zap.String("tier", tier.Label),
			zap.Error(err))
		if !g.advance() {
			g.recordExhaustion()
			return nil, types.ErrServiceExhausted
		}
	}

	g.recordExhaustion()
	return nil, types.ErrServiceExhausted
}

// CurrentTier reports the tier the next request will try first.
func (g *TierGateway) CurrentTier() config.ModelTier {
	_, tier := g.currentTier()
	return tier
}

// LastFailure reports when the gateway last exhausted every tier; the
// zero time means it never has.
func (g *TierGateway) LastFailure() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastFailureAt
}

func (g *TierGateway) currentTier() (int, config.ModelTier) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current, g.tiers[g.current]
}

// advance moves to the next cheaper tier, reporting whether a switch
// happened. False means the cursor was already at the bottom.
func (g *TierGateway) advance() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current >= len(g.tiers)-1 {
		return false
	}
	g.current++
	g.logger.Info("switched to fallback tier",
		zap.String("model", g.tiers[g.current].Name),
		zap.String("tier", g.tiers[g.current].Label))
	return true
}

// maybeResetToTop returns the cursor to the top tier once the cooldown
// after a degraded success has elapsed. Checking a timestamp here instead
// of arming a timer keeps the behavior deterministic under test.
func (g *TierGateway) maybeResetToTop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.degradedSuccessAt.IsZero() {
		return
	}
	if g.now().Sub(g.degradedSuccessAt) < g.cooldown {
		return
	}
	g.current = 0
	g.degradedSuccessAt = time.Time{}
	g.logger.Info("reset to top tier", zap.String("model", g.tiers[0].Name))
}

// scheduleReset marks the first degraded success since the last reset;
// later successes do not push the reset further out.
func (g *TierGateway) scheduleReset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.degradedSuccessAt.IsZero() {
		g.degradedSuccessAt = g.now()
	}
}

func (g *TierGateway) recordExhaustion() {
	g.mu.Lock()
	g.lastFailureAt = g.now()
	g.mu.Unlock()
	g.logger.Error("every model tier exhausted")
}

func buildPrompt(message, contextText string) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	if contextText != "" {
		b.WriteString("\n\nRelevant knowledge base entries:\n\n")
		b.WriteString(contextText)
	}
	b.WriteString("\n\nCustomer: ")
	b.WriteString(message)
	return b.String()
}

// IsQuotaError classifies an error as rate-limiting or usage-limit
// exhaustion. Structured status codes from the known client libraries are
// checked first, then the known phrases as a fallback.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) && googleErr.Code == http.StatusTooManyRequests {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	for _, phrase := range quotaPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
