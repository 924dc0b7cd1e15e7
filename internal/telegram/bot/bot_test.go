package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	"github.com/futig/template-chat/internal/integration/llm"
	"github.com/futig/template-chat/internal/pkg/formatter"
	"github.com/futig/template-chat/internal/pkg/ratelimit"
	"github.com/futig/template-chat/internal/telegram/keyboard"
	"github.com/futig/template-chat/internal/telegram/render"
	"github.com/futig/template-chat/internal/telegram/state"
	"github.com/futig/template-chat/internal/usecase/conversation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userID int64 = 7
	chatID int64 = 70
)

type fakeClient struct {
	mu        sync.Mutex
	messages  []tgbotapi.MessageConfig
	documents []tgbotapi.DocumentConfig
	callbacks []tgbotapi.CallbackConfig
	actions   int
	updates   chan tgbotapi.Update
	stopped   bool
}

func (f *fakeClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		f.messages = append(f.messages, v)
	case tgbotapi.DocumentConfig:
		f.documents = append(f.documents, v)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := c.(type) {
	case tgbotapi.CallbackConfig:
		f.callbacks = append(f.callbacks, v)
	case tgbotapi.ChatActionConfig:
		f.actions++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeClient) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeClient) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeClient) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.messages)
	return f.messages[len(f.messages)-1]
}

type recordingGateway struct {
	mu      sync.Mutex
	reply   string
	systems []string
}

func (g *recordingGateway) Send(_ context.Context, _ []entity.Message, opts entity.SendOptions) (*entity.ModelReply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, opts.System)
	return &entity.ModelReply{Segments: []entity.ContentSegment{{Type: "text", Text: g.reply}}}, nil
}

type fixture struct {
	bot     *Bot
	client  *fakeClient
	usecase *conversation.ConversationUsecase
	gateway *recordingGateway
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()

	gw := &recordingGateway{reply: reply}
	cfg := config.ConversationConfig{TTL: time.Hour, CleanupInterval: time.Minute, MaxCorrections: 3}
	uc := conversation.NewUsecase(conversation.NewRegistry(cfg, config.DefaultPrompts(), gw), formatter.NewFactory(), zap.NewNop())
	client := &fakeClient{updates: make(chan tgbotapi.Update)}

	b := New(
		client,
		config.TelegramConfig{UpdateTimeout: 1, ShutdownTimeout: time.Second},
		time.Minute,
		state.NewManager(time.Hour, time.Minute),
		uc,
		ratelimit.New(600, 100),
		zap.NewNop(),
	)
	return &fixture{bot: b, client: client, usecase: uc, gateway: gw}
}

func (f *fixture) send(update tgbotapi.Update) {
	f.bot.handleUpdate(context.Background(), update)
}

func command(cmd string) tgbotapi.Update {
	text := "/" + cmd
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: s,
	}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func TestBot_StartAndTurn(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)

	f.send(text("I need a task tracker"))
	assert.Equal(t, render.MsgNoConversation, f.client.lastMessage(t).Text)

	f.send(command("start"))
	greeting := f.client.lastMessage(t)
	assert.Equal(t, config.DefaultPrompts().Greeting, greeting.Text)
	assert.Equal(t, chatID, greeting.ChatID)

	f.send(text("I need a task tracker"))
	reply := f.client.lastMessage(t)
	assert.Contains(t, reply.Text, "✅ Task Tracker")
	assert.Contains(t, reply.Text, "• Status (select)")
	assert.Equal(t, f.bot.keyboard.TemplateKeyboard(), reply.ReplyMarkup)
	assert.GreaterOrEqual(t, f.client.actions, 1, "typing indicator shown")
}

func TestBot_Refinement(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)
	f.send(command("start"))

	f.send(callback(keyboard.EncodeCallback(keyboard.ActionRefine, "views")))
	assert.Equal(t, render.RefinementQueued(entity.RefinementViews), f.client.lastMessage(t).Text)
	require.Len(t, f.client.callbacks, 1)

	f.send(text("add a board grouped by status"))
	f.send(text("and a calendar"))

	instruction, ok := config.DefaultPrompts().Refinement(entity.RefinementViews)
	require.True(t, ok)
	require.Len(t, f.gateway.systems, 2)
	assert.Contains(t, f.gateway.systems[0], instruction)
	assert.NotContains(t, f.gateway.systems[1], instruction, "refinement applies to one message")

	f.send(callback(keyboard.EncodeCallback(keyboard.ActionRefine, "colors")))
	assert.Equal(t, "❌ Invalid data", f.client.callbacks[len(f.client.callbacks)-1].Text)
}

func TestBot_Export(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)
	f.send(command("start"))

	f.send(callback(keyboard.EncodeCallback(keyboard.ActionExport, "markdown")))
	assert.Equal(t, render.MsgNoTemplate, f.client.lastMessage(t).Text)
	assert.Empty(t, f.client.documents)

	f.send(text("I need a task tracker"))
	f.send(command("export"))
	assert.Equal(t, render.MsgChooseFormat, f.client.lastMessage(t).Text)

	f.send(callback(keyboard.EncodeCallback(keyboard.ActionExport, "markdown")))
	require.Len(t, f.client.documents, 1)
	doc, ok := f.client.documents[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "task-tracker.md", doc.Name)
	assert.Contains(t, string(doc.Bytes), "# ✅ Task Tracker\n")
}

func TestBot_InvalidReply(t *testing.T) {
	f := newFixture(t, "What kind of tracker do you want?")
	f.send(command("start"))

	f.send(text("a tracker"))
	msg := f.client.lastMessage(t)
	assert.Equal(t, render.ChatError(entity.NewChatError(entity.CodeInvalidStructure, "")), msg.Text)
}

func TestBot_ExpiredConversation(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)
	f.send(command("start"))

	sess, ok := f.bot.sessions.Get(userID)
	require.True(t, ok)
	require.NoError(t, f.usecase.DeleteConversation(context.Background(), sess.ConversationID))

	f.send(text("hello"))
	assert.Equal(t, render.MsgConversationExpired, f.client.lastMessage(t).Text)
	_, ok = f.bot.sessions.Get(userID)
	assert.False(t, ok)
}

func TestBot_CommandsWithoutConversation(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)

	f.send(command("preview"))
	assert.Equal(t, render.MsgNoConversation, f.client.lastMessage(t).Text)

	f.send(command("export"))
	assert.Equal(t, render.MsgNoConversation, f.client.lastMessage(t).Text)

	f.send(command("bogus"))
	assert.Equal(t, render.MsgUnknownCommand, f.client.lastMessage(t).Text)

	f.send(command("help"))
	assert.Equal(t, render.MsgHelp, f.client.lastMessage(t).Text)
}

func TestBot_Cancel(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)
	f.send(command("start"))
	sess, _ := f.bot.sessions.Get(userID)

	f.send(command("cancel"))
	assert.Equal(t, render.MsgConversationClosed, f.client.lastMessage(t).Text)

	_, err := f.usecase.GetConversation(context.Background(), sess.ConversationID)
	assert.ErrorIs(t, err, entity.ErrConversationNotFound)
}

func TestBot_StartStop(t *testing.T) {
	f := newFixture(t, llm.MockTaskTrackerReply)

	require.NoError(t, f.bot.Start(context.Background()))
	f.client.updates <- command("start")

	assert.Eventually(t, func() bool {
		f.client.mu.Lock()
		defer f.client.mu.Unlock()
		return len(f.client.messages) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, f.bot.Stop())
	assert.True(t, f.client.stopped)
	require.NoError(t, f.bot.Stop(), "stop is idempotent")
}
