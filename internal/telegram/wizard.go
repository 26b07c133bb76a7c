package telegram

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"

	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type step int

const (
	stepGoal step = iota
	stepDays
	stepEquipment
	stepDiet
	stepBudget
	stepAllergies
)

// Callback data prefixes, "<prefix>|<value>".
const (
	cbGoal   = "goal"
	cbDays   = "days"
	cbDiet   = "diet"
	cbBudget = "budget"
)

const (
	skipCommand       = "skip"
	generatingText    = "🤖 Generating your personalized plan... This may take a moment."
	chooseOptionText  = "Please choose one of the options above."
	daysQuestion      = "How many days a week can you work out?"
	noWizardText      = "Send /plan to create your personalized workout and diet plan."
	equipmentQuestion = "What workout equipment do you have access to?\n\n" +
		"Reply with a short description, or /skip to use: " + profile.DefaultEquipment
	allergiesQuestion = "List any food allergies or foods you dislike (comma-separated), e.g. Nuts, dairy, spicy food.\n\n" +
		"Reply /skip if there are none."
)

// session is the in-progress form of one chat. It lives only until the
// plan is submitted.
type session struct {
	step step
	req  profile.PlanRequest
}

// chatLock serializes the updates of one chat. refs counts the holders and
// waiters so the entry can be dropped when the chat goes idle.
type chatLock struct {
	mu   sync.Mutex
	refs int
}

type sessionStore struct {
	mu     sync.Mutex
	byChat map[int64]session
	locks  map[int64]*chatLock
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		byChat: make(map[int64]session),
		locks:  make(map[int64]*chatLock),
	}
}

// lockChat blocks until no other update of chatID is being handled and
// returns the matching unlock function.
func (s *sessionStore) lockChat(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}

func (s *sessionStore) get(chatID int64) (session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byChat[chatID]
	return sess, ok
}

func (s *sessionStore) put(chatID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byChat[chatID] = sess
}

func (s *sessionStore) delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byChat, chatID)
}

func optionKeyboard(prefix string, opts []profile.Option) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o.Label, prefix+"|"+o.Value),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func daysKeyboard() tgbotapi.InlineKeyboardMarkup {
	var first, second []tgbotapi.InlineKeyboardButton
	for d := profile.MinWorkoutDays; d <= profile.MaxWorkoutDays; d++ {
		btn := tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(d), cbDays+"|"+strconv.Itoa(d))
		if d <= 4 {
			first = append(first, btn)
		} else {
			second = append(second, btn)
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(first, second)
}

func (b *Bot) startWizard(chatID int64) {
	b.sessions.put(chatID, session{step: stepGoal, req: profile.Default()})
	b.ask(chatID, stepGoal)
}

// ask sends the question for st.
func (b *Bot) ask(chatID int64, st step) {
	msg := tgbotapi.NewMessage(chatID, "")
	switch st {
	case stepGoal:
		msg.Text = "What is your primary fitness goal?"
		msg.ReplyMarkup = optionKeyboard(cbGoal, profile.GoalOptions())
	case stepDays:
		msg.Text = daysQuestion
		msg.ReplyMarkup = daysKeyboard()
	case stepEquipment:
		msg.Text = equipmentQuestion
	case stepDiet:
		msg.Text = "What are your dietary preferences?"
		msg.ReplyMarkup = optionKeyboard(cbDiet, profile.DietOptions())
	case stepBudget:
		msg.Text = "What is your approximate weekly budget for food?"
		msg.ReplyMarkup = optionKeyboard(cbBudget, profile.BudgetOptions())
	case stepAllergies:
		msg.Text = allergiesQuestion
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send question to chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}
	if query.Message == nil || query.Message.Chat == nil {
		return
	}
	chatID := query.Message.Chat.ID

	sess, ok := b.sessions.get(chatID)
	if !ok {
		b.send(chatID, noWizardText)
		return
	}

	prefix, value, found := strings.Cut(query.Data, "|")
	if !found {
		return
	}

	switch {
	case prefix == cbGoal && sess.step == stepGoal:
		if sess.req.Goal = profile.ParseGoal(value); sess.req.Goal == "" {
			return
		}
		sess.step = stepDays
	case prefix == cbDays && sess.step == stepDays:
		days, err := strconv.Atoi(value)
		if err != nil {
			return
		}
		sess.req.WorkoutDays = profile.ClampDays(days)
		sess.step = stepEquipment
	case prefix == cbDiet && sess.step == stepDiet:
		if sess.req.Diet = profile.ParseDiet(value); sess.req.Diet == "" {
			return
		}
		sess.step = stepBudget
	case prefix == cbBudget && sess.step == stepBudget:
		if sess.req.Budget = profile.ParseBudget(value); sess.req.Budget == "" {
			return
		}
		sess.step = stepAllergies
	default:
		// Stale button from an earlier question
		return
	}

	b.sessions.put(chatID, sess)
	b.ask(chatID, sess.step)
}

// handleAnswer handles free text, which only the equipment and allergies
// steps accept. Messages without text (stickers, photos) arrive as "".
func (b *Bot) handleAnswer(chatID int64, text string) {
	sess, ok := b.sessions.get(chatID)
	if !ok {
		b.send(chatID, noWizardText)
		return
	}

	skip := commandOf(text) == skipCommand
	switch sess.step {
	case stepEquipment:
		if !skip {
			if strings.TrimSpace(text) == "" {
				b.send(chatID, profile.ValidationMessage)
				b.ask(chatID, stepEquipment)
				return
			}
			sess.req.Equipment = text
		}
		sess.step = stepDiet
		b.sessions.put(chatID, sess)
		b.ask(chatID, stepDiet)
	case stepAllergies:
		if text == "" {
			b.ask(chatID, stepAllergies)
			return
		}
		if skip {
			sess.req.Allergies = ""
		} else {
			sess.req.Allergies = text
		}
		b.sessions.delete(chatID)
		b.submit(chatID, sess.req)
	default:
		b.send(chatID, chooseOptionText)
	}
}

// submit runs one submission and edits the status message into the result.
func (b *Bot) submit(chatID int64, req profile.PlanRequest) {
	if req.Validate() != nil {
		b.send(chatID, profile.ValidationMessage+"\n\nSend /plan to start again.")
		return
	}

	status, err := b.send(chatID, generatingText)
	if err != nil {
		return
	}

	result := b.planner.Submit(context.Background(), req)

	var chunks []string
	switch result.State {
	case planner.StateDisplayResult:
		chunks = splitMessage(result.Markdown, maxMessageLength)
	default:
		chunks = []string{"❌ " + result.Message}
	}

	edit := tgbotapi.NewEditMessageText(chatID, status.MessageID, chunks[0])
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Failed to edit status message in chat %d: %v", chatID, err)
	}
	for _, chunk := range chunks[1:] {
		b.send(chatID, chunk)
	}
}
