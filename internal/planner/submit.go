package planner

import (
	"context"
	"errors"
	"log"

	"ai-fitness-planner/internal/profile"
)

// State is a step of the submission lifecycle. Every submission starts at
// StateIdle, passes StateRequesting when the request is valid, and ends in
// one of the display states.
type State string

const (
	StateIdle              State = "idle"
	StateRequesting        State = "requesting"
	StateValidationWarning State = "validation_warning"
	StateDisplayResult     State = "display_result"
	StateDisplayError      State = "display_error"
)

// Result is the outcome of one submission.
type Result struct {
	State State
	// Markdown is the generated plan, set for StateDisplayResult.
	Markdown string
	// Message is the user-visible warning or error text.
	Message string
	// Missing lists empty required fields for StateValidationWarning.
	Missing []string
}

// OK reports whether the submission produced a plan.
func (r Result) OK() bool { return r.State == StateDisplayResult }

// Submit handles one form submission: presence validation, then at most one
// generation call. It never returns an error; failures are reported in Result.
func (s *Service) Submit(ctx context.Context, req profile.PlanRequest) Result {
	if w := req.Validate(); w != nil {
		return Result{
			State:   StateValidationWarning,
			Message: profile.ValidationMessage,
			Missing: w.Missing,
		}
	}

	plan, err := s.Generate(ctx, req)
	if err != nil {
		log.Printf("Error generating plan: %v", err)
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			genErr = &GenerationError{Cause: err}
		}
		return Result{
			State:   StateDisplayError,
			Message: genErr.Error(),
		}
	}

	return Result{
		State:    StateDisplayResult,
		Markdown: plan.Markdown,
	}
}
