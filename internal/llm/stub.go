package llm

import (
	"context"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/shared"
)

// StubPlan is the canned reply of the stub provider.
const StubPlan = "## Workout Plan\n\n" +
	"- **Day 1:** Squats 3x12, Push-ups 3x10, Plank 3x30s\n\n" +
	"## Diet Plan\n\n" +
	"- **Day 1:** Oats for breakfast, lentil soup for lunch, stir-fry for dinner, fruit as a snack\n"

// stubClient returns a fixed reply without any network access.
type stubClient struct {
	reply string
}

// NewStubClient creates a TextGenerator that always answers with reply.
func NewStubClient(reply string) TextGenerator {
	return &stubClient{reply: reply}
}

func (c *stubClient) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return ContentResponse{}, err
	}
	return ContentResponse{
		Content: c.reply,
		Usage:   shared.TokenUsage{Model: config.ProviderStub},
	}, nil
}
