// Package scoring rates caregiver burnout risk. The tier served to clients
// is always the stored one; scoring only proposes updates, so a scoring
// outage never blanks the dashboard.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/pkg/circuitbreaker"
)

// Input is the feature set sent to the scorer.
type Input struct {
	StressLevel            string `json:"stress_level"`
	SupportSystemStrength  string `json:"support_system_strength"`
	HoursOfCareThisWeek    int    `json:"hours_of_care_this_week"`
	NightsInterruptedSleep int    `json:"nights_interrupted_sleep"`
	EmergencyCallsMade     int    `json:"emergency_calls_made"`
	DaysSinceRespite       int    `json:"days_since_respite"`
}

// Assessment is a scorer's verdict.
type Assessment struct {
	Tier               clinical.RiskTier `json:"tier"`
	RecommendedActions []string          `json:"recommended_actions,omitempty"`
	Source             string            `json:"source"`
}

// Scorer rates burnout risk from a caregiver snapshot.
type Scorer interface {
	Score(ctx context.Context, in Input) (Assessment, error)
}

// RemoteConfig holds remote scorer settings.
type RemoteConfig struct {
	// URL of the scoring endpoint
	URL string
	// Timeout per scoring request
	Timeout time.Duration
}

// DefaultRemoteConfig returns default remote scorer settings
func DefaultRemoteConfig(url string) RemoteConfig {
	return RemoteConfig{
		URL:     url,
		Timeout: 3 * time.Second,
	}
}

// RemoteScorer calls an external scoring service behind a circuit breaker.
// When the call fails or the circuit is open it serves the stored tier.
type RemoteScorer struct {
	cfg     RemoteConfig
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger

	// onFallback is invoked each time the stored tier is served
	onFallback func()
}

// NewRemoteScorer creates a scorer backed by an HTTP endpoint
func NewRemoteScorer(cfg RemoteConfig, breaker *circuitbreaker.CircuitBreaker, logger *zap.Logger) *RemoteScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteScorer{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// OnFallback registers a hook fired when the stored tier is served.
func (s *RemoteScorer) OnFallback(fn func()) {
	s.onFallback = fn
}

// ScoreWithFallback scores the input, falling back to the stored snapshot
// when the remote service is unavailable.
func (s *RemoteScorer) ScoreWithFallback(ctx context.Context, in Input, stored clinical.CaregiverStatus) (Assessment, error) {
	result, err := s.breaker.ExecuteWithFallback(ctx,
		func() (interface{}, error) {
			return s.callRemote(ctx, in)
		},
		func(cause error) (interface{}, error) {
			if s.onFallback != nil {
				s.onFallback()
			}
			s.logger.Warn("scoring unavailable, serving stored tier",
				zap.String("caregiver_id", stored.CaregiverID),
				zap.Error(cause))
			return Assessment{
				Tier:               stored.BurnoutRisk,
				RecommendedActions: stored.RecommendedActions,
				Source:             "stored",
			}, nil
		},
	)
	if err != nil {
		return Assessment{}, err
	}
	return result.(Assessment), nil
}

// Score implements Scorer against the remote endpoint without a fallback.
func (s *RemoteScorer) Score(ctx context.Context, in Input) (Assessment, error) {
	result, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		return s.callRemote(ctx, in)
	})
	if err != nil {
		return Assessment{}, err
	}
	return result.(Assessment), nil
}

func (s *RemoteScorer) callRemote(ctx context.Context, in Input) (Assessment, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return Assessment{}, fmt.Errorf("marshal input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return Assessment{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Assessment{}, fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Assessment{}, fmt.Errorf("scoring service returned %d", resp.StatusCode)
	}

	var out Assessment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Assessment{}, fmt.Errorf("decode response: %w", err)
	}
	if out.Tier != clinical.RiskLow && out.Tier != clinical.RiskModerate && out.Tier != clinical.RiskHigh {
		return Assessment{}, fmt.Errorf("scoring service returned unknown tier %q", out.Tier)
	}
	out.Source = "remote"
	return out, nil
}
