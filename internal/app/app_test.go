package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"
)

func stubConfig(metricsPath string) *config.Config {
	return &config.Config{
		LLMProvider:   config.ProviderStub,
		MetricsDBPath: metricsPath,
	}
}

func validRequest() profile.PlanRequest {
	req := profile.Default()
	req.Equipment = "bodyweight only"
	return req
}

func TestNewWithoutMetrics(t *testing.T) {
	a, err := New(context.Background(), stubConfig(""))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Metrics != nil {
		t.Error("Expected metrics to be disabled")
	}
	result := a.Planner.Submit(context.Background(), validRequest())
	if result.State != planner.StateDisplayResult || result.Markdown != llm.StubPlan {
		t.Errorf("Expected stub plan, got %+v", result)
	}
}

func TestNewWithMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "metrics.db")
	a, err := New(context.Background(), stubConfig(path))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Metrics == nil {
		t.Fatal("Expected a metrics store")
	}
	if result := a.Planner.Submit(context.Background(), validRequest()); !result.OK() {
		t.Fatalf("Expected a plan, got %+v", result)
	}
	if _, err := a.Metrics.GetDailyUsage(7); err != nil {
		t.Errorf("Expected usage query to work on a migrated db: %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{LLMProvider: "nope"})
	if err == nil {
		t.Fatal("Expected an error for an unknown provider")
	}
}

func TestOpenMetricsDisabled(t *testing.T) {
	if _, err := OpenMetrics(stubConfig("")); !errors.Is(err, ErrMetricsDisabled) {
		t.Errorf("Expected ErrMetricsDisabled, got %v", err)
	}
}
