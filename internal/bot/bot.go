package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jokehub/internal/config"
	"jokehub/internal/database"
	"jokehub/internal/jokeapi"
	"jokehub/internal/models"
	"jokehub/internal/queue"
	"jokehub/pkg/logger"

	"gopkg.in/telebot.v4"
)

var ErrRateLimited = errors.New("telegram rate limited")

// SendQueue buffers outbound Telegram messages. Implemented by *queue.NATS.
type SendQueue interface {
	PublishSend(ctx context.Context, msg *queue.SendMessage) error
	ConsumeSends(ctx context.Context, handler func(*queue.SendMessage) error) error
}

type Bot struct {
	settings  telebot.Settings
	api       *jokeapi.Client
	regDB     *database.RegistrationRepository
	jokeDB    *database.JokeRepository
	q         SendQueue
	tbot      *telebot.Bot
	cfg       config.BotConfig
	dialogs   *dialogStore
	menu      *telebot.ReplyMarkup
	btnRandom telebot.Btn
}

func New(cfg config.BotConfig, api *jokeapi.Client, regDB *database.RegistrationRepository, jokeDB *database.JokeRepository, q SendQueue) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	menu := &telebot.ReplyMarkup{}
	btnRandom := menu.Data("Random joke", "random")
	menu.Inline(menu.Row(btnRandom))

	return &Bot{
		cfg:       cfg,
		api:       api,
		regDB:     regDB,
		jokeDB:    jokeDB,
		q:         q,
		dialogs:   newDialogStore(),
		menu:      menu,
		btnRandom: btnRandom,
		settings: telebot.Settings{
			Token:  cfg.Token,
			Poller: &telebot.LongPoller{Timeout: 10},
		},
	}, nil
}

// Start creates the Telegram bot and begins polling. The context bounds the
// send consumer, which stops when the caller cancels it.
func (b *Bot) Start(ctx context.Context) (*telebot.Bot, error) {
	tbot, err := telebot.NewBot(b.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.tbot = tbot
	b.setupHandlers(tbot)

	b.startSendConsumer(ctx)

	go tbot.Start()

	return tbot, nil
}

func (b *Bot) setupHandlers(bot *telebot.Bot) {
	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		logger.Info("Incoming text message",
			logger.Int64("user_id", c.Sender().ID),
			logger.String("username", c.Sender().Username),
		)
		return b.handleText(c)
	})

	bot.Handle(&b.btnRandom, b.handleRandomButton)

	bot.Handle("/start", b.handleStart)
	bot.Handle("/random", b.handleRandom)
	bot.Handle("/user", b.handleUser)
	bot.Handle("/add", b.handleAdd)
	bot.Handle("/change", b.handleChange)
	bot.Handle("/delete", b.handleDelete)
	bot.Handle("/cancel", b.handleCancel)
	bot.Handle("/stats", b.handleStats)
	bot.Handle("/help", b.handleHelp)
}

func (b *Bot) startSendConsumer(ctx context.Context) {
	if b.q == nil {
		return
	}

	go func() {
		err := b.q.ConsumeSends(ctx, func(msg *queue.SendMessage) error {
			return b.sendMessageWithRetry(msg.ChatID, msg.Text)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Send consumer error", logger.Err(err))
		}
	}()
}

func (b *Bot) sendMessageWithRetry(chatID int64, text string) error {
	maxRetries := 3
	retryDelay := time.Second

	for i := 0; i < maxRetries; i++ {
		_, err := b.tbot.Send(&telebot.Chat{ID: chatID}, text, &telebot.SendOptions{
			ParseMode: telebot.ModeMarkdown,
		})

		if err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "rate") {
				logger.Warn("Rate limited, retrying...",
					logger.Int("retry", i+1),
					logger.Int("max_retries", maxRetries),
				)
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}

	return ErrRateLimited
}

func (b *Bot) queueOrSend(chatID int64, text string) error {
	if b.q != nil {
		msg := &queue.SendMessage{
			ChatID: chatID,
			Text:   text,
		}
		if err := b.q.PublishSend(context.Background(), msg); err != nil {
			logger.Error("Failed to queue telegram message", logger.Err(err))
		}
		return nil
	}

	_, err := b.tbot.Send(&telebot.Chat{ID: chatID}, text, &telebot.SendOptions{
		ParseMode: telebot.ModeMarkdown,
	})
	return err
}

func (b *Bot) handleStart(c telebot.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if _, err := b.regDB.Register(ctx, userID); err != nil {
		logger.Error("Failed to register user",
			logger.Int64("user_id", userID),
			logger.Err(err),
		)
	}

	welcome := "*Welcome to the Joke Bot!*\n\n" +
		"I mix jokes from the community with jokes from the internet.\n\n" +
		"Commands:\n" +
		"- /random - Get a random joke\n" +
		"- /user <id> - Get a community joke by ID\n" +
		"- /add - Submit your own joke\n" +
		"- /change - Rewrite one of your jokes\n" +
		"- /delete - Remove one of your jokes\n" +
		"- /cancel - Abort the current command\n" +
		"- /stats - Bot statistics\n" +
		"- /help - Show this help message"

	return c.Send(welcome, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}, b.menu)
}

// handleRandomButton answers the callback so Telegram clears the button's
// loading spinner, then behaves like /random.
func (b *Bot) handleRandomButton(c telebot.Context) error {
	logger.Info("Random joke button pressed",
		logger.Int64("user_id", c.Sender().ID),
	)

	if err := c.Respond(); err != nil {
		logger.Warn("Failed to answer callback", logger.Err(err))
	}

	return b.handleRandom(c)
}

func (b *Bot) handleRandom(c telebot.Context) error {
	ctx := context.Background()

	text, err := b.api.Random(ctx)
	if err != nil {
		if !errors.Is(err, jokeapi.ErrNotFound) {
			logger.Error("Failed to get random joke", logger.Err(err))
		}
		return b.queueOrSend(c.Sender().ID, "No jokes available right now.")
	}

	return b.queueOrSend(c.Sender().ID, text)
}

func (b *Bot) handleUser(c telebot.Context) error {
	args := c.Args()
	if len(args) == 0 {
		return b.queueOrSend(c.Sender().ID, "Please provide a joke ID: /user <id>")
	}

	id, ok := parseID(args[0])
	if !ok {
		return b.queueOrSend(c.Sender().ID, "Please provide a valid joke ID.")
	}

	joke, err := b.api.Get(context.Background(), id)
	if err != nil {
		if !errors.Is(err, jokeapi.ErrNotFound) {
			logger.Error("Failed to get joke", logger.Int64("id", id), logger.Err(err))
		}
		return b.queueOrSend(c.Sender().ID, "Joke not found.")
	}

	return b.queueOrSend(c.Sender().ID, joke.JokeText)
}

func (b *Bot) handleAdd(c telebot.Context) error {
	userID := c.Sender().ID

	text := strings.TrimSpace(strings.Join(c.Args(), " "))
	if text != "" {
		b.dialogs.clear(userID)
		return b.submitAdd(userID, text)
	}

	b.dialogs.set(userID, stateAwaitAddText, 0)
	return b.queueOrSend(userID, "Send me the joke text, or /cancel.")
}

func (b *Bot) handleChange(c telebot.Context) error {
	userID := c.Sender().ID
	args := c.Args()

	if len(args) >= 2 {
		id, ok := parseID(args[0])
		if !ok {
			return b.queueOrSend(userID, "Please provide a valid joke ID.")
		}
		b.dialogs.clear(userID)
		return b.submitChange(userID, id, strings.Join(args[1:], " "))
	}

	if len(args) == 1 {
		id, ok := parseID(args[0])
		if !ok {
			return b.queueOrSend(userID, "Please provide a valid joke ID.")
		}
		b.dialogs.set(userID, stateAwaitChangeText, id)
		return b.queueOrSend(userID, "Now send the new joke text, or /cancel.")
	}

	b.dialogs.set(userID, stateAwaitChangeID, 0)
	return b.queueOrSend(userID, "Which joke should I change? Send its ID, or /cancel.")
}

func (b *Bot) handleDelete(c telebot.Context) error {
	userID := c.Sender().ID
	args := c.Args()

	if len(args) >= 1 {
		id, ok := parseID(args[0])
		if !ok {
			return b.queueOrSend(userID, "Please provide a valid joke ID.")
		}
		explicitSecret := ""
		if len(args) >= 2 {
			explicitSecret = args[1]
		}
		b.dialogs.clear(userID)
		return b.submitDelete(userID, id, explicitSecret)
	}

	b.dialogs.set(userID, stateAwaitDeleteID, 0)
	return b.queueOrSend(userID, "Which joke should I delete? Send its ID, or /cancel.")
}

func (b *Bot) handleCancel(c telebot.Context) error {
	b.dialogs.clear(c.Sender().ID)
	return b.queueOrSend(c.Sender().ID, "Cancelled.")
}

func (b *Bot) handleStats(c telebot.Context) error {
	stats, err := b.statsMessage(context.Background())
	if err != nil {
		logger.Error("Failed to get statistics", logger.Err(err))
		return b.queueOrSend(c.Sender().ID, "Failed to get statistics")
	}

	return b.queueOrSend(c.Sender().ID, stats)
}

func (b *Bot) statsMessage(ctx context.Context) (string, error) {
	totalJokes, err := b.jokeDB.Count(ctx)
	if err != nil {
		return "", err
	}
	totalUsers, err := b.regDB.Count(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"*Bot Statistics*\n\n"+
			"Community jokes: %d\n"+
			"Registered users: %d",
		totalJokes, totalUsers,
	), nil
}

func (b *Bot) handleHelp(c telebot.Context) error {
	help := "*Help*\n\n" +
		"Commands:\n" +
		"- /start - Start the bot\n" +
		"- /random - Get a random joke\n" +
		"- /user <id> - Get a community joke by ID\n" +
		"- /add [text] - Submit your own joke\n" +
		"- /change [id text] - Rewrite one of your jokes\n" +
		"- /delete [id] [secret] - Remove one of your jokes\n" +
		"- /cancel - Abort the current command\n" +
		"- /stats - Show bot statistics\n" +
		"- /help - Show this help message"

	return b.queueOrSend(c.Sender().ID, help)
}

// handleText drives the dialogue flows: each awaiting state consumes the next
// message from that user as its payload.
func (b *Bot) handleText(c telebot.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	state, pendingID := b.dialogs.get(userID)

	switch state {
	case stateAwaitAddText:
		if text == "" {
			return b.queueOrSend(userID, "The joke text cannot be empty. Try again, or /cancel.")
		}
		b.dialogs.clear(userID)
		return b.submitAdd(userID, text)

	case stateAwaitChangeID:
		id, ok := parseID(text)
		if !ok {
			return b.queueOrSend(userID, "That doesn't look like a joke ID. Send a number, or /cancel.")
		}
		b.dialogs.set(userID, stateAwaitChangeText, id)
		return b.queueOrSend(userID, "Now send the new joke text, or /cancel.")

	case stateAwaitChangeText:
		if text == "" {
			return b.queueOrSend(userID, "The joke text cannot be empty. Try again, or /cancel.")
		}
		b.dialogs.clear(userID)
		return b.submitChange(userID, pendingID, text)

	case stateAwaitDeleteID:
		id, ok := parseID(text)
		if !ok {
			return b.queueOrSend(userID, "That doesn't look like a joke ID. Send a number, or /cancel.")
		}
		b.dialogs.clear(userID)
		return b.submitDelete(userID, id, "")

	default:
		return b.queueOrSend(userID, "Use /random to get a joke, or /help for commands.")
	}
}

// submitAdd posts a new joke under the user's stored secret, registering the
// user first if needed.
func (b *Bot) submitAdd(userID int64, text string) error {
	ctx := context.Background()

	secret, err := b.regDB.Register(ctx, userID)
	if err != nil {
		logger.Error("Failed to register user", logger.Int64("user_id", userID), logger.Err(err))
		return b.queueOrSend(userID, "Failed to add joke.")
	}

	jokeID, err := b.api.Create(ctx, userID, secret, text)
	if err != nil {
		logger.Error("Failed to add joke", logger.Int64("user_id", userID), logger.Err(err))
		return b.queueOrSend(userID, "Failed to add joke.")
	}

	return b.queueOrSend(userID, fmt.Sprintf("Joke added with ID: %d", jokeID))
}

func (b *Bot) submitChange(userID, jokeID int64, text string) error {
	ctx := context.Background()

	secret, err := b.regDB.Register(ctx, userID)
	if err != nil {
		logger.Error("Failed to register user", logger.Int64("user_id", userID), logger.Err(err))
		return b.queueOrSend(userID, "Failed to update joke.")
	}

	patch := models.JokePatch{
		TgID:     &userID,
		Secret:   &secret,
		JokeText: &text,
	}
	if err := b.api.Update(ctx, jokeID, patch); err != nil {
		if errors.Is(err, jokeapi.ErrNotFound) {
			return b.queueOrSend(userID, "Joke not found.")
		}
		logger.Error("Failed to update joke", logger.Int64("joke_id", jokeID), logger.Err(err))
		return b.queueOrSend(userID, "Failed to update joke.")
	}

	return b.queueOrSend(userID, "Joke updated.")
}

// submitDelete removes a joke. An explicit secret overrides the stored one,
// so unregistered owners can still delete by typing theirs.
func (b *Bot) submitDelete(userID, jokeID int64, explicitSecret string) error {
	ctx := context.Background()

	secret := explicitSecret
	if secret == "" {
		stored, err := b.regDB.Register(ctx, userID)
		if err != nil {
			logger.Error("Failed to register user", logger.Int64("user_id", userID), logger.Err(err))
			return b.queueOrSend(userID, "Failed to delete joke.")
		}
		secret = stored
	}

	if err := b.api.Delete(ctx, jokeID, secret); err != nil {
		switch {
		case errors.Is(err, jokeapi.ErrNotFound):
			return b.queueOrSend(userID, "Joke not found.")
		case errors.Is(err, jokeapi.ErrForbidden):
			return b.queueOrSend(userID, "Wrong secret for that joke.")
		default:
			logger.Error("Failed to delete joke", logger.Int64("joke_id", jokeID), logger.Err(err))
			return b.queueOrSend(userID, "Failed to delete joke.")
		}
	}

	return b.queueOrSend(userID, "Joke deleted.")
}

// parseID accepts digits-only ids.
func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
