package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carecompanion/go-care/internal/domain/clinical"
	"github.com/carecompanion/go-care/pkg/circuitbreaker"
)

func newTestScorer(t *testing.T, url string) *RemoteScorer {
	t.Helper()
	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("scoring-test"), nil)
	return NewRemoteScorer(DefaultRemoteConfig(url), breaker, nil)
}

func TestScoreRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in Input
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode input: %v", err)
		}
		if in.DaysSinceRespite != 14 {
			t.Errorf("days since respite = %d, want 14", in.DaysSinceRespite)
		}
		json.NewEncoder(w).Encode(Assessment{
			Tier:               clinical.RiskHigh,
			RecommendedActions: []string{"Schedule respite care this week"},
		})
	}))
	defer srv.Close()

	s := newTestScorer(t, srv.URL)
	got, err := s.Score(context.Background(), Input{
		StressLevel:      "high",
		DaysSinceRespite: 14,
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Tier != clinical.RiskHigh {
		t.Errorf("tier = %q, want high", got.Tier)
	}
	if got.Source != "remote" {
		t.Errorf("source = %q, want remote", got.Source)
	}
}

func TestScoreRejectsUnknownTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tier": "critical"})
	}))
	defer srv.Close()

	s := newTestScorer(t, srv.URL)
	if _, err := s.Score(context.Background(), Input{}); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestScoreWithFallbackServesStoredTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestScorer(t, srv.URL)
	fallbacks := 0
	s.OnFallback(func() { fallbacks++ })

	stored := clinical.CaregiverStatus{
		CaregiverID:        "cg-1",
		BurnoutRisk:        clinical.RiskModerate,
		RecommendedActions: []string{"Join a support group"},
		UpdatedAt:          time.Now(),
	}

	got, err := s.ScoreWithFallback(context.Background(), Input{}, stored)
	if err != nil {
		t.Fatalf("ScoreWithFallback: %v", err)
	}
	if got.Tier != clinical.RiskModerate {
		t.Errorf("tier = %q, want stored moderate", got.Tier)
	}
	if got.Source != "stored" {
		t.Errorf("source = %q, want stored", got.Source)
	}
	if fallbacks != 1 {
		t.Errorf("fallback hook fired %d times, want 1", fallbacks)
	}
}
