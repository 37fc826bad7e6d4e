package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-backend/apperr"
	"chat-backend/broadcast"
	"chat-backend/document"
	"chat-backend/dto/req"
	"chat-backend/dto/res"
	"chat-backend/entity"
	"chat-backend/enum"
)

type messageFixture struct {
	chats    *fakeChatRepo
	messages *fakeMessageRepo
	metadata *fakeMetadataRepo
	presence *fakePresenceRepo
	users    *fakeUserStore
	bus      *fakeBroadcaster
	uc       MessageUsecase
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	chats := newFakeChatRepo()
	messages := newFakeMessageRepo()
	metadata := newFakeMetadataRepo()
	presence := newFakePresenceRepo()
	users := newFakeUserStore(
		&entity.User{BaseEntity: entity.BaseEntity{ID: "alice"}, Username: "alice"},
		&entity.User{BaseEntity: entity.BaseEntity{ID: "bob"}, Username: "bob"},
		&entity.User{BaseEntity: entity.BaseEntity{ID: "carol"}, Username: "carol"},
	)
	bus := &fakeBroadcaster{}

	chats.addChat(&entity.Chat{BaseEntity: entity.BaseEntity{ID: "chat-1"}, ChatType: enum.ChatTypeGroup, Name: "room", CreatedByID: "alice"})
	chats.addParticipant("chat-1", entity.ChatParticipant{UserID: "alice", Role: enum.RoleAdmin, IsActive: true})
	chats.addParticipant("chat-1", entity.ChatParticipant{UserID: "bob", Role: enum.RoleMember, IsActive: true})
	chats.addParticipant("chat-1", entity.ChatParticipant{UserID: "carol", Role: enum.RoleMember, IsActive: false})

	uc := NewMessageUsecase(chats, messages, metadata, presence, users, bus, testValidator(), testLogger(), time.Second)
	return &messageFixture{chats: chats, messages: messages, metadata: metadata, presence: presence, users: users, bus: bus, uc: uc}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("writes document then index row and broadcasts", func(t *testing.T) {
		fx := newMessageFixture(t)

		got, err := fx.uc.SendMessage(ctx, "alice", &req.SendMessageRequest{
			ChatID:  "chat-1",
			Content: "hello",
		})
		require.NoError(t, err)

		assert.Equal(t, "chat-1", got.ChatID)
		assert.Equal(t, enum.MessageTypeText, got.MessageType)
		assert.Equal(t, "alice", got.SenderUsername)

		row := fx.metadata.rows[got.ID]
		require.NotNil(t, row, "index row missing")
		assert.Equal(t, "chat-1", row.ChatID)
		assert.Equal(t, "alice", row.SenderID)
		assert.False(t, row.IsDeleted)

		require.Len(t, fx.chats.touched, 1, "chat recency not advanced")

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, broadcast.ChatTopic("chat-1"), events[0].Topic)
		assert.Equal(t, broadcast.EventMessageCreated, events[0].Event)
	})

	t.Run("index write failure keeps document and reports internal", func(t *testing.T) {
		fx := newMessageFixture(t)
		fx.metadata.saveErr = errors.New("pg down")

		_, err := fx.uc.SendMessage(ctx, "alice", &req.SendMessageRequest{
			ChatID:  "chat-1",
			Content: "hello",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))

		assert.Len(t, fx.messages.messages, 1, "document should stay for reconciliation")
		assert.Empty(t, fx.bus.events(), "no broadcast on failed index write")
	})

	t.Run("document write failure writes nothing", func(t *testing.T) {
		fx := newMessageFixture(t)
		fx.messages.insertErr = errors.New("mongo down")

		_, err := fx.uc.SendMessage(ctx, "alice", &req.SendMessageRequest{
			ChatID:  "chat-1",
			Content: "hello",
		})
		require.Error(t, err)
		assert.Empty(t, fx.metadata.rows)
		assert.Empty(t, fx.bus.events())
	})

	t.Run("non-participant rejected", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.SendMessage(ctx, "mallory", &req.SendMessageRequest{
			ChatID:  "chat-1",
			Content: "hi",
		})
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	})

	t.Run("left participant rejected", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.SendMessage(ctx, "carol", &req.SendMessageRequest{
			ChatID:  "chat-1",
			Content: "hi",
		})
		assert.ErrorIs(t, err, apperr.ErrLeftChat)
	})

	t.Run("unknown chat rejected", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.SendMessage(ctx, "alice", &req.SendMessageRequest{
			ChatID:  "nope",
			Content: "hi",
		})
		assert.ErrorIs(t, err, apperr.ErrChatNotFound)
	})

	t.Run("unknown message type rejected", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.SendMessage(ctx, "alice", &req.SendMessageRequest{
			ChatID:      "chat-1",
			Content:     "hi",
			MessageType: "CARRIER_PIGEON",
		})
		assert.Equal(t, apperr.CodeBadRequest, apperr.CodeOf(err))
	})
}

func TestEditMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("sender edits live message", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "old", Type: enum.MessageTypeText, SentAt: time.Now()})

		got, err := fx.uc.EditMessage(ctx, "alice", msg.ID, &req.EditMessageRequest{Content: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", got.Content)
		require.NotNil(t, got.EditedAt)

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, broadcast.EventMessageEdited, events[0].Event)
	})

	t.Run("only the sender may edit", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "old", SentAt: time.Now()})

		_, err := fx.uc.EditMessage(ctx, "bob", msg.ID, &req.EditMessageRequest{Content: "new"})
		assert.ErrorIs(t, err, apperr.ErrNotSender)
	})

	t.Run("deleted message cannot be edited", func(t *testing.T) {
		fx := newMessageFixture(t)
		now := time.Now()
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "old", SentAt: now, DeletedAt: &now})

		_, err := fx.uc.EditMessage(ctx, "alice", msg.ID, &req.EditMessageRequest{Content: "new"})
		assert.ErrorIs(t, err, apperr.ErrMessageDeleted)
	})

	t.Run("losing the race with a delete reports a bad request", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "old", SentAt: time.Now()})
		fx.messages.updateErr = apperr.ErrMessageDeleted

		_, err := fx.uc.EditMessage(ctx, "alice", msg.ID, &req.EditMessageRequest{Content: "new"})
		assert.ErrorIs(t, err, apperr.ErrMessageDeleted)
		assert.Empty(t, fx.bus.events())
	})

	t.Run("store failure surfaces as internal", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "old", SentAt: time.Now()})
		fx.messages.updateErr = errors.New("mongo: connection reset")

		_, err := fx.uc.EditMessage(ctx, "alice", msg.ID, &req.EditMessageRequest{Content: "new"})
		assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
		assert.Empty(t, fx.bus.events())
	})
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("sender soft-deletes and index row converges", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "bob", Content: "oops", SentAt: time.Now()})
		fx.metadata.rows[msg.ID] = &entity.MessageMetadata{ChatID: "chat-1", SenderID: "bob", MessageDocID: msg.ID}

		require.NoError(t, fx.uc.DeleteMessage(ctx, "bob", msg.ID))

		assert.True(t, fx.messages.messages[msg.ID].IsDeleted())
		assert.True(t, fx.metadata.rows[msg.ID].IsDeleted)

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, broadcast.EventMessageDeleted, events[0].Event)
	})

	t.Run("group admin may delete another member's message", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "bob", Content: "spam", SentAt: time.Now()})

		require.NoError(t, fx.uc.DeleteMessage(ctx, "alice", msg.ID))
		assert.True(t, fx.messages.messages[msg.ID].IsDeleted())
	})

	t.Run("plain member cannot delete another member's message", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "keep", SentAt: time.Now()})

		err := fx.uc.DeleteMessage(ctx, "bob", msg.ID)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})
}

func TestReactions(t *testing.T) {
	ctx := context.Background()

	t.Run("add then duplicate conflicts", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now()})

		got, err := fx.uc.AddReaction(ctx, "bob", msg.ID, &req.ReactionRequest{Emoji: "👍"})
		require.NoError(t, err)
		require.Len(t, got.Reactions, 1)
		assert.Equal(t, "bob", got.Reactions[0].UserID)

		_, err = fx.uc.AddReaction(ctx, "bob", msg.ID, &req.ReactionRequest{Emoji: "👍"})
		assert.ErrorIs(t, err, apperr.ErrDuplicateReaction)

		// Same user, different emoji is fine.
		got, err = fx.uc.AddReaction(ctx, "bob", msg.ID, &req.ReactionRequest{Emoji: "🎉"})
		require.NoError(t, err)
		assert.Len(t, got.Reactions, 2)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{
			ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now(),
			Reactions: []document.Reaction{{UserID: "bob", Emoji: "👍", CreatedAt: time.Now()}},
		})

		got, err := fx.uc.RemoveReaction(ctx, "bob", msg.ID, "👍")
		require.NoError(t, err)
		assert.Empty(t, got.Reactions)

		got, err = fx.uc.RemoveReaction(ctx, "bob", msg.ID, "👍")
		require.NoError(t, err)
		assert.Empty(t, got.Reactions)
	})

	t.Run("non-participant cannot react", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now()})

		_, err := fx.uc.AddReaction(ctx, "mallory", msg.ID, &req.ReactionRequest{Emoji: "👍"})
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	})

	t.Run("concurrent identical reactions admit exactly one winner", func(t *testing.T) {
		fx := newMessageFixture(t)
		msg := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now()})

		errs := make(chan error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := fx.uc.AddReaction(ctx, "bob", msg.ID, &req.ReactionRequest{Emoji: "👍"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var won, conflicted int
		for err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, apperr.ErrDuplicateReaction):
				conflicted++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, 1, conflicted)
		assert.Len(t, fx.messages.messages[msg.ID].Reactions, 1)
	})
}

func TestMarkMessagesAsRead(t *testing.T) {
	ctx := context.Background()

	t.Run("new receipts notify senders once", func(t *testing.T) {
		fx := newMessageFixture(t)
		m1 := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "a", SentAt: time.Now()})
		m2 := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "b", SentAt: time.Now()})

		payload := &req.ReadReceiptRequest{ChatID: "chat-1", MessageIDs: []string{m1.ID, m2.ID}}
		require.NoError(t, fx.uc.MarkMessagesAsRead(ctx, "bob", payload))

		events := fx.bus.events()
		require.Len(t, events, 2)
		for _, ev := range events {
			assert.Equal(t, broadcast.UserQueue("alice", broadcast.QueueReadReceipt), ev.Topic)
			assert.Equal(t, broadcast.EventReadReceipt, ev.Event)
			note, ok := ev.Payload.(res.ReadReceiptNotification)
			require.True(t, ok)
			assert.Equal(t, "bob", note.ReaderID)
		}

		// Marking again is silent: no second receipt, no second notification.
		require.NoError(t, fx.uc.MarkMessagesAsRead(ctx, "bob", payload))
		assert.Len(t, fx.bus.events(), 2)
		assert.Len(t, fx.messages.messages[m1.ID].ReadBy, 1)
	})

	t.Run("reading own messages is silent", func(t *testing.T) {
		fx := newMessageFixture(t)
		m := fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "bob", Content: "mine", SentAt: time.Now()})

		payload := &req.ReadReceiptRequest{ChatID: "chat-1", MessageIDs: []string{m.ID}}
		require.NoError(t, fx.uc.MarkMessagesAsRead(ctx, "bob", payload))
		assert.Empty(t, fx.bus.events())
		assert.Empty(t, fx.messages.messages[m.ID].ReadBy)
	})
}

func TestGetChatMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("enriches usernames and read flag", func(t *testing.T) {
		fx := newMessageFixture(t)
		fx.messages.add(&document.Message{
			ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now(),
			ReadBy: []document.ReadReceipt{{UserID: "bob", ReadAt: time.Now()}},
		})

		got, err := fx.uc.GetChatMessages(ctx, "bob", "chat-1", 0, 20)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alice", got[0].SenderUsername)
		assert.True(t, got[0].IsRead)
		require.Len(t, got[0].ReadBy, 1)
		assert.Equal(t, "bob", got[0].ReadBy[0].Username)
	})

	t.Run("former participant keeps read access", func(t *testing.T) {
		fx := newMessageFixture(t)
		fx.messages.add(&document.Message{ChatID: "chat-1", SenderID: "alice", Content: "hi", SentAt: time.Now()})

		got, err := fx.uc.GetChatMessages(ctx, "carol", "chat-1", 0, 20)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("outsider denied", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.GetChatMessages(ctx, "mallory", "chat-1", 0, 20)
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	})
}

func TestHandleTyping(t *testing.T) {
	ctx := context.Background()

	t.Run("stores indicator and broadcasts with username", func(t *testing.T) {
		fx := newMessageFixture(t)

		err := fx.uc.HandleTyping(ctx, "bob", &req.TypingRequest{ChatID: "chat-1", IsTyping: true})
		require.NoError(t, err)

		typing, _ := fx.presence.TypingUsers(ctx, "chat-1")
		assert.Equal(t, []string{"bob"}, typing)

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, broadcast.EventTyping, events[0].Event)
		payload, ok := events[0].Payload.(res.TypingResponse)
		require.True(t, ok)
		assert.Equal(t, "bob", payload.Username)
		assert.True(t, payload.IsTyping)
	})

	t.Run("stop typing clears indicator", func(t *testing.T) {
		fx := newMessageFixture(t)

		require.NoError(t, fx.uc.HandleTyping(ctx, "bob", &req.TypingRequest{ChatID: "chat-1", IsTyping: true}))
		require.NoError(t, fx.uc.HandleTyping(ctx, "bob", &req.TypingRequest{ChatID: "chat-1", IsTyping: false}))

		typing, _ := fx.presence.TypingUsers(ctx, "chat-1")
		assert.Empty(t, typing)
	})

	t.Run("left participant cannot signal typing", func(t *testing.T) {
		fx := newMessageFixture(t)

		err := fx.uc.HandleTyping(ctx, "carol", &req.TypingRequest{ChatID: "chat-1", IsTyping: true})
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	})

	t.Run("presence store failure surfaces", func(t *testing.T) {
		fx := newMessageFixture(t)
		fx.presence.err = errors.New("redis down")

		err := fx.uc.HandleTyping(ctx, "bob", &req.TypingRequest{ChatID: "chat-1", IsTyping: true})
		assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))
	})
}

func TestGetTypingUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("lists live typers with usernames, excluding the caller", func(t *testing.T) {
		fx := newMessageFixture(t)
		require.NoError(t, fx.uc.HandleTyping(ctx, "alice", &req.TypingRequest{ChatID: "chat-1", IsTyping: true}))
		require.NoError(t, fx.uc.HandleTyping(ctx, "bob", &req.TypingRequest{ChatID: "chat-1", IsTyping: true}))

		got, err := fx.uc.GetTypingUsers(ctx, "bob", "chat-1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "alice", got[0].UserID)
		assert.Equal(t, "alice", got[0].Username)
		assert.True(t, got[0].IsTyping)
	})

	t.Run("left participant cannot read typing state", func(t *testing.T) {
		fx := newMessageFixture(t)

		_, err := fx.uc.GetTypingUsers(ctx, "carol", "chat-1")
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	})
}
