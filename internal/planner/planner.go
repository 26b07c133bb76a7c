package planner

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/profile"
	"ai-fitness-planner/internal/shared"
)

const agentName = "Coach"

// PlanResponse is the text returned by the generation call. It is opaque
// markdown and is never post-processed.
type PlanResponse struct {
	Markdown string
	Meta     shared.AgentMeta
}

// GenerationError wraps any failure of the generation call.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("An error occurred while generating your plan: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// Recorder receives metadata for every generation call.
type Recorder interface {
	RecordMeta(meta shared.AgentMeta) error
}

// Service turns a PlanRequest into a plan with exactly one generation call.
type Service struct {
	textGen  llm.TextGenerator
	recorder Recorder
}

// NewService creates a new Service. recorder may be nil.
func NewService(textGen llm.TextGenerator, recorder Recorder) *Service {
	return &Service{
		textGen:  textGen,
		recorder: recorder,
	}
}

// Generate renders the prompt for req and performs one generation call.
// The caller is expected to have validated req.
func (s *Service) Generate(ctx context.Context, req profile.PlanRequest) (*PlanResponse, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, &GenerationError{Cause: err}
	}

	start := time.Now()
	resp, err := s.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: agentName,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
		Failed:    err != nil,
	}
	s.record(meta)

	if err != nil {
		return nil, &GenerationError{Cause: err}
	}

	return &PlanResponse{
		Markdown: resp.Content,
		Meta:     meta,
	}, nil
}

func (s *Service) record(meta shared.AgentMeta) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}
