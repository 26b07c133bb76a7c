package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"ai-fitness-planner/internal/config"
	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the subset of *tgbotapi.BotAPI the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wraps the Telegram API and the plan service.
type Bot struct {
	api          sender
	botAPI       *tgbotapi.BotAPI
	planner      *planner.Service
	metricsStore *metrics.Store
	cfg          *config.Config
	sessions     *sessionStore
}

// NewBot initializes the Telegram Bot and, when a webhook URL is configured, sets the webhook.
// metricsStore may be nil.
func NewBot(cfg *config.Config, svc *planner.Service, metricsStore *metrics.Store) (*Bot, error) {
	if cfg.TelegramBotToken == "" {
		return nil, &config.Error{Key: "TELEGRAM_BOT_TOKEN", Reason: "environment variable not set"}
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Printf("Webhook set response: %s", resp.Description)
	}

	b := newBot(api, cfg, svc, metricsStore)
	b.botAPI = api
	return b, nil
}

func newBot(api sender, cfg *config.Config, svc *planner.Service, metricsStore *metrics.Store) *Bot {
	return &Bot{
		api:          api,
		planner:      svc,
		metricsStore: metricsStore,
		cfg:          cfg,
		sessions:     newSessionStore(),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// Poll receives updates by long polling until ctx is done. Used when no
// webhook URL is configured.
func (b *Bot) Poll(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.botAPI.HandleUpdate(r)
	if err != nil {
		log.Printf("Error parsing update: %v", err)
		return
	}
	go b.handleUpdate(*update)
}

// handleUpdate processes one update. A panic is logged and contained so the
// bot keeps serving other chats.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while handling update %d: %v", update.UpdateID, r)
		}
	}()

	// Updates of one chat run one at a time so wizard steps cannot interleave.
	switch {
	case update.CallbackQuery != nil:
		if !b.isAllowed(update.CallbackQuery.From) {
			return
		}
		if msg := update.CallbackQuery.Message; msg != nil && msg.Chat != nil {
			defer b.sessions.lockChat(msg.Chat.ID)()
		}
		b.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		if !b.isAllowed(update.Message.From) || update.Message.Chat == nil {
			return
		}
		defer b.sessions.lockChat(update.Message.Chat.ID)()
		b.handleMessage(update.Message)
	}
}

func (b *Bot) isAllowed(user *tgbotapi.User) bool {
	if user == nil {
		return false
	}
	if len(b.cfg.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.TelegramAllowedUserIDs {
		if user.ID == id {
			return true
		}
	}
	log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", user.ID, user.UserName)
	return false
}

// commandOf returns the bot command in text ("/plan@my_bot" -> "plan"), or "".
func commandOf(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0][1:]
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

const helpText = "I create a personalized workout and diet plan for you.\n\n" +
	"/plan - answer six quick questions and get your plan\n" +
	"/cancel - stop the current questions"

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch commandOf(msg.Text) {
	case "start", "help":
		b.send(chatID, helpText)
		return
	case "plan":
		b.startWizard(chatID)
		return
	case "cancel":
		b.sessions.delete(chatID)
		b.send(chatID, "Cancelled. Send /plan to start again.")
		return
	case "metrics":
		b.handleMetricsRequest(msg)
		return
	}

	b.handleAnswer(chatID, msg.Text)
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ Access Denied: Admin only.")
		return
	}
	b.send(msg.Chat.ID, b.metricsReport())
}

func (b *Bot) metricsReport() string {
	var sb strings.Builder
	sb.WriteString("📊 Usage & Health Report\n\n")

	sb.WriteString("🗓 Recent LLM Activity\n")
	if b.metricsStore == nil {
		sb.WriteString("Metrics are disabled\n")
	} else if usage, err := b.metricsStore.GetDailyUsage(7); err != nil {
		log.Printf("Error fetching metrics: %v", err)
		sb.WriteString("❌ Error fetching metrics.\n")
	} else if len(usage) == 0 {
		sb.WriteString("No data yet\n")
	} else {
		for _, d := range usage {
			sb.WriteString(fmt.Sprintf("• %s: %d tokens (%d execs, %d failed)\n",
				d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution, d.TotalFailed))
		}
	}

	health := metrics.GetSysHealth(b.cfg.MetricsDBPath)
	sb.WriteString("\n🧠 System Health\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	if health.DataDiskSize != "" {
		sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))
	}
	return sb.String()
}

func (b *Bot) send(chatID int64, text string) (tgbotapi.Message, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
	return sent, err
}
