package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jokehub/internal/config"
	"jokehub/internal/database"
	"jokehub/internal/jokeapi"
	"jokehub/internal/queue"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"gopkg.in/telebot.v4"
)

type fakeQueue struct {
	mu         sync.Mutex
	published  []*queue.SendMessage
	started    chan struct{}
	consumeCtx context.Context
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{started: make(chan struct{})}
}

func (f *fakeQueue) PublishSend(_ context.Context, msg *queue.SendMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeQueue) ConsumeSends(ctx context.Context, _ func(*queue.SendMessage) error) error {
	f.consumeCtx = ctx
	close(f.started)
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeQueue) sent() []*queue.SendMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*queue.SendMessage(nil), f.published...)
}

// fakeTeleContext implements the handful of telebot.Context methods the
// handlers touch; everything else panics via the nil embedded interface.
type fakeTeleContext struct {
	telebot.Context
	sender    *telebot.User
	responded bool
}

func (f *fakeTeleContext) Sender() *telebot.User { return f.sender }

func (f *fakeTeleContext) Respond(_ ...*telebot.CallbackResponse) error {
	f.responded = true
	return nil
}

func newMockDB(t *testing.T) (*database.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	return &database.DB{Pool: mock}, mock
}

func TestQueueOrSendPrefersQueue(t *testing.T) {
	q := newFakeQueue()
	b := &Bot{q: q}

	if err := b.queueOrSend(42, "hello"); err != nil {
		t.Fatalf("queueOrSend() error = %v", err)
	}

	sent := q.sent()
	if len(sent) != 1 || sent[0].ChatID != 42 || sent[0].Text != "hello" {
		t.Errorf("queued messages = %+v", sent)
	}
}

func TestSendConsumerStopsWithCaller(t *testing.T) {
	q := newFakeQueue()
	b := &Bot{q: q, dialogs: newDialogStore()}

	ctx, cancel := context.WithCancel(context.Background())
	b.startSendConsumer(ctx)

	select {
	case <-q.started:
	case <-time.After(time.Second):
		t.Fatal("consumer never started")
	}

	cancel()

	select {
	case <-q.consumeCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("consumer did not observe the caller's cancellation")
	}
}

func TestRandomButtonAnswersCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"a joke"}`))
	}))
	defer srv.Close()

	q := newFakeQueue()
	b := &Bot{
		api:     jokeapi.New(config.BotConfig{APIURL: srv.URL}),
		q:       q,
		dialogs: newDialogStore(),
	}

	c := &fakeTeleContext{sender: &telebot.User{ID: 42}}
	if err := b.handleRandomButton(c); err != nil {
		t.Fatalf("handleRandomButton() error = %v", err)
	}

	if !c.responded {
		t.Error("callback was not answered, spinner would keep running")
	}

	sent := q.sent()
	if len(sent) != 1 || sent[0].Text != "a joke" {
		t.Errorf("queued messages = %+v", sent)
	}
}

func TestStatsMessage(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	b := &Bot{
		jokeDB: database.NewJokeRepository(db),
		regDB:  database.NewRegistrationRepository(db),
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM jokes`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	msg, err := b.statsMessage(context.Background())
	if err != nil {
		t.Fatalf("statsMessage() error = %v", err)
	}
	if !strings.Contains(msg, "Community jokes: 3") || !strings.Contains(msg, "Registered users: 2") {
		t.Errorf("statsMessage() = %q", msg)
	}
}

func TestStatsMessage_UserCountError(t *testing.T) {
	db, mock := newMockDB(t)
	defer mock.Close()
	b := &Bot{
		jokeDB: database.NewJokeRepository(db),
		regDB:  database.NewRegistrationRepository(db),
	}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM jokes`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations`).
		WillReturnError(context.DeadlineExceeded)

	// A broken user count must fail the whole report, not show zero users.
	if _, err := b.statsMessage(context.Background()); err == nil {
		t.Error("statsMessage() returned nil error with a failing user count")
	}
}
