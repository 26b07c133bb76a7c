package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/llm"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	testChatID = int64(42)
	testUserID = int64(7)
)

// fakeSender records everything the bot sends.
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every sent message and edit, in order.
func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) last() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type mockTextGenerator struct {
	calls   int
	prompt  string
	content string
	err     error
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.calls++
	m.prompt = prompt
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{Content: m.content}, nil
}

func newTestBot(cfg *config.Config, gen *mockTextGenerator) (*Bot, *fakeSender) {
	api := &fakeSender{}
	return newBot(api, cfg, planner.NewService(gen, nil), nil), api
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
	}}
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChatID}},
	}}
}

func runWizard(b *Bot, equipment, allergies string) {
	b.handleUpdate(textUpdate("/plan"))
	b.handleUpdate(callbackUpdate("goal|gain_muscle"))
	b.handleUpdate(callbackUpdate("days|4"))
	b.handleUpdate(textUpdate(equipment))
	b.handleUpdate(callbackUpdate("diet|vegan"))
	b.handleUpdate(callbackUpdate("budget|low"))
	b.handleUpdate(textUpdate(allergies))
}

func TestWizardProducesPlan(t *testing.T) {
	gen := &mockTextGenerator{content: "## Workout Plan\n...\n## Diet Plan\n..."}
	b, api := newTestBot(&config.Config{}, gen)

	runWizard(b, "Dumbbells", "peanuts")

	if gen.calls != 1 {
		t.Fatalf("Expected one generation call, got %d", gen.calls)
	}
	for _, want := range []string{"Gain Muscle", "4 days per week", "Dumbbells", "Vegan", "peanuts"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	texts := api.texts()
	if len(texts) < 2 || texts[len(texts)-2] != generatingText {
		t.Errorf("Expected the status message before the result, got %v", texts)
	}
	if got := api.last(); got != gen.content {
		t.Errorf("Expected plan verbatim, got %q", got)
	}
	if _, ok := b.sessions.get(testChatID); ok {
		t.Error("Expected session to be cleared after submission")
	}
	if len(api.requests) != 4 {
		t.Errorf("Expected 4 answered callbacks, got %d", len(api.requests))
	}
}

func TestWizardSkipKeepsDefaults(t *testing.T) {
	gen := &mockTextGenerator{content: "plan"}
	b, _ := newTestBot(&config.Config{}, gen)

	runWizard(b, "/skip", "/skip")

	if !strings.Contains(gen.prompt, profile.DefaultEquipment) {
		t.Error("Expected default equipment in prompt")
	}
	if !strings.Contains(gen.prompt, "None specified") {
		t.Error("Expected allergies to fall back to 'None specified'")
	}
}

func TestWizardGenerationError(t *testing.T) {
	gen := &mockTextGenerator{err: errors.New("quota exceeded")}
	b, api := newTestBot(&config.Config{}, gen)

	runWizard(b, "Dumbbells", "/skip")

	got := api.last()
	if !strings.HasPrefix(got, "❌ An error occurred while generating your plan:") || !strings.Contains(got, "quota exceeded") {
		t.Errorf("Unexpected error text %q", got)
	}
}

func TestWizardRejectsOutOfOrderInput(t *testing.T) {
	gen := &mockTextGenerator{content: "plan"}
	b, api := newTestBot(&config.Config{}, gen)

	b.handleUpdate(textUpdate("/plan"))
	b.handleUpdate(textUpdate("some text"))
	if got := api.last(); got != chooseOptionText {
		t.Errorf("Expected %q, got %q", chooseOptionText, got)
	}

	// A budget button while the goal is asked is ignored.
	b.handleUpdate(callbackUpdate("budget|high"))
	sess, _ := b.sessions.get(testChatID)
	if sess.step != stepGoal {
		t.Errorf("Expected to stay at goal step, got %d", sess.step)
	}

	b.handleUpdate(textUpdate("/cancel"))
	if _, ok := b.sessions.get(testChatID); ok {
		t.Error("Expected /cancel to clear the session")
	}
	if gen.calls != 0 {
		t.Errorf("Expected no generation call, got %d", gen.calls)
	}
}

func TestWizardAllergiesIgnoresNonText(t *testing.T) {
	gen := &mockTextGenerator{content: "plan"}
	b, api := newTestBot(&config.Config{}, gen)

	// A sticker carries no text.
	runWizard(b, "Dumbbells", "")

	if gen.calls != 0 {
		t.Errorf("Expected no generation call for a non-text answer, got %d", gen.calls)
	}
	if got := api.last(); got != allergiesQuestion {
		t.Errorf("Expected the allergies question again, got %q", got)
	}
	if sess, ok := b.sessions.get(testChatID); !ok || sess.step != stepAllergies {
		t.Error("Expected the wizard to stay at the allergies step")
	}

	b.handleUpdate(textUpdate("peanuts"))
	if gen.calls != 1 || !strings.Contains(gen.prompt, "peanuts") {
		t.Errorf("Expected a plan for the text answer, got %d calls", gen.calls)
	}
}

func TestWizardConcurrentTapsAdvanceOnce(t *testing.T) {
	b, api := newTestBot(&config.Config{}, &mockTextGenerator{content: "plan"})
	b.handleUpdate(textUpdate("/plan"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.handleUpdate(callbackUpdate("goal|gain_muscle"))
		}()
	}
	wg.Wait()

	asked := 0
	for _, text := range api.texts() {
		if text == daysQuestion {
			asked++
		}
	}
	if asked != 1 {
		t.Errorf("Expected the days question once, got %d", asked)
	}
	if sess, _ := b.sessions.get(testChatID); sess.step != stepDays {
		t.Errorf("Expected days step, got %d", sess.step)
	}
	if n := len(b.sessions.locks); n != 0 {
		t.Errorf("Expected chat locks to be released, got %d", n)
	}
}

func TestMessageWithoutWizard(t *testing.T) {
	b, api := newTestBot(&config.Config{}, &mockTextGenerator{})

	b.handleUpdate(textUpdate("hello"))
	if got := api.last(); got != noWizardText {
		t.Errorf("Expected %q, got %q", noWizardText, got)
	}
}

func TestAllowedUsers(t *testing.T) {
	gen := &mockTextGenerator{content: "plan"}
	b, api := newTestBot(&config.Config{TelegramAllowedUserIDs: []int64{99}}, gen)

	b.handleUpdate(textUpdate("/plan"))
	if len(api.texts()) != 0 {
		t.Errorf("Expected no reply to unauthorized user, got %v", api.texts())
	}
}

func TestMetricsAdminOnly(t *testing.T) {
	t.Run("NotAdmin", func(t *testing.T) {
		b, api := newTestBot(&config.Config{AdminTelegramID: 1}, &mockTextGenerator{})
		b.handleUpdate(textUpdate("/metrics"))
		if !strings.Contains(api.last(), "Access Denied") {
			t.Errorf("Expected access denied, got %q", api.last())
		}
	})

	t.Run("Admin", func(t *testing.T) {
		b, api := newTestBot(&config.Config{AdminTelegramID: testUserID}, &mockTextGenerator{})
		b.handleUpdate(textUpdate("/metrics"))
		got := api.last()
		if !strings.Contains(got, "Usage & Health Report") || !strings.Contains(got, "Metrics are disabled") {
			t.Errorf("Unexpected report %q", got)
		}
	})
}

func TestCommandOf(t *testing.T) {
	tests := map[string]string{
		"/plan":         "plan",
		"/Plan@fit_bot": "plan",
		"  /skip  ":     "skip",
		"plan":          "",
		"/cancel now":   "cancel",
		"":              "",
	}
	for in, want := range tests {
		if got := commandOf(in); got != want {
			t.Errorf("commandOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		got := splitMessage("hello", 100)
		if len(got) != 1 || got[0] != "hello" {
			t.Errorf("Expected single chunk, got %v", got)
		}
	})

	t.Run("PreservesText", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < 300; i++ {
			sb.WriteString("- Squats 3x12 💪 with a longer description line\n")
		}
		text := sb.String()

		chunks := splitMessage(text, maxMessageLength)
		if len(chunks) < 2 {
			t.Fatalf("Expected multiple chunks, got %d", len(chunks))
		}
		if strings.Join(chunks, "") != text {
			t.Error("Expected chunks to join back to the original text")
		}
		for i, c := range chunks {
			if n := len([]rune(c)); n > maxMessageLength/2 {
				t.Errorf("Chunk %d has %d runes", i, n)
			}
			if i < len(chunks)-1 && !strings.HasSuffix(c, "\n") {
				t.Errorf("Expected chunk %d to end at a line break", i)
			}
		}
	})

	t.Run("NoLineBreaks", func(t *testing.T) {
		text := strings.Repeat("é", 25)
		chunks := splitMessage(text, 20)
		if strings.Join(chunks, "") != text || len(chunks) != 3 {
			t.Errorf("Unexpected chunks %v", chunks)
		}
	})
}
