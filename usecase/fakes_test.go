package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"chat-backend/apperr"
	"chat-backend/broadcast"
	"chat-backend/document"
	"chat-backend/entity"
	"chat-backend/enum"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testValidator() *validator.Validate {
	return validator.New()
}

// fakeChatRepo keeps chats and participant rows in memory.
type fakeChatRepo struct {
	chats        map[string]*entity.Chat
	participants map[string]map[string]*entity.ChatParticipant
	nextID       int

	createErr error
	touched   []time.Time

	// hideFirstPairLookup makes the first pair-key lookup miss, simulating
	// a concurrent creation landing between lookup and insert.
	hideFirstPairLookup bool
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:        make(map[string]*entity.Chat),
		participants: make(map[string]map[string]*entity.ChatParticipant),
	}
}

func (f *fakeChatRepo) addChat(chat *entity.Chat) *entity.Chat {
	if chat.ID == "" {
		f.nextID++
		chat.ID = fmt.Sprintf("chat-%d", f.nextID)
	}
	f.chats[chat.ID] = chat
	return chat
}

func (f *fakeChatRepo) addParticipant(chatID string, p entity.ChatParticipant) {
	p.ChatID = chatID
	if f.participants[chatID] == nil {
		f.participants[chatID] = make(map[string]*entity.ChatParticipant)
	}
	f.participants[chatID][p.UserID] = &p
}

func (f *fakeChatRepo) FindChatByID(ctx context.Context, id string) (*entity.Chat, error) {
	chat, ok := f.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return chat, nil
}

func (f *fakeChatRepo) FindPrivateChatByPairKey(ctx context.Context, pairKey string) (*entity.Chat, error) {
	if f.hideFirstPairLookup {
		f.hideFirstPairLookup = false
		return nil, nil
	}
	for _, chat := range f.chats {
		if chat.PairKey != nil && *chat.PairKey == pairKey {
			return chat, nil
		}
	}
	return nil, nil
}

func (f *fakeChatRepo) CreateChatWithParticipants(ctx context.Context, chat *entity.Chat, participants []entity.ChatParticipant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.addChat(chat)
	for _, p := range participants {
		f.addParticipant(chat.ID, p)
	}
	return nil
}

func (f *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	f.chats[chat.ID] = chat
	return nil
}

func (f *fakeChatRepo) FindChatsByUserID(ctx context.Context, userID string, typeFilter enum.ChatType) ([]entity.Chat, error) {
	var out []entity.Chat
	for chatID, members := range f.participants {
		p, ok := members[userID]
		if !ok || !p.IsActive {
			continue
		}
		chat := f.chats[chatID]
		if typeFilter != "" && chat.ChatType != typeFilter {
			continue
		}
		out = append(out, *chat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeChatRepo) FindParticipant(ctx context.Context, chatID, userID string) (*entity.ChatParticipant, error) {
	if members, ok := f.participants[chatID]; ok {
		if p, ok := members[userID]; ok {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeChatRepo) FindActiveParticipants(ctx context.Context, chatID string) ([]entity.ChatParticipant, error) {
	var out []entity.ChatParticipant
	for _, p := range f.participants[chatID] {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeChatRepo) IsActiveParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	p, _ := f.FindParticipant(ctx, chatID, userID)
	return p != nil && p.IsActive, nil
}

func (f *fakeChatRepo) CountActiveAdmins(ctx context.Context, chatID string) (int64, error) {
	var n int64
	for _, p := range f.participants[chatID] {
		if p.IsActive && p.Role == enum.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (f *fakeChatRepo) SaveParticipant(ctx context.Context, participant *entity.ChatParticipant) error {
	f.addParticipant(participant.ChatID, *participant)
	return nil
}

func (f *fakeChatRepo) ReactivateParticipant(ctx context.Context, chatID, userID string) error {
	if p, _ := f.FindParticipant(ctx, chatID, userID); p != nil {
		p.IsActive = true
		p.LeftAt = nil
	}
	return nil
}

func (f *fakeChatRepo) DeactivateParticipant(ctx context.Context, chatID, userID string) error {
	if p, _ := f.FindParticipant(ctx, chatID, userID); p != nil && p.IsActive {
		now := time.Now()
		p.IsActive = false
		p.LeftAt = &now
	}
	return nil
}

func (f *fakeChatRepo) UpdateParticipantRole(ctx context.Context, chatID, userID string, role enum.ParticipantRole) error {
	if p, _ := f.FindParticipant(ctx, chatID, userID); p != nil {
		p.Role = role
	}
	return nil
}

func (f *fakeChatRepo) TouchChat(ctx context.Context, chatID string, at time.Time) error {
	f.touched = append(f.touched, at)
	if chat, ok := f.chats[chatID]; ok {
		chat.UpdatedAt = at
	}
	return nil
}

// fakeMessageRepo mirrors the conditional-update semantics of the real
// collection: duplicate reactions conflict, repeated receipts are silent.
type fakeMessageRepo struct {
	messages map[string]*document.Message
	order    []string
	nextID   int

	insertErr error
	updateErr error

	mu sync.Mutex
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*document.Message)}
}

func (f *fakeMessageRepo) add(msg *document.Message) *document.Message {
	if msg.ID == "" {
		f.nextID++
		msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	}
	if msg.Reactions == nil {
		msg.Reactions = []document.Reaction{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []document.ReadReceipt{}
	}
	f.messages[msg.ID] = msg
	f.order = append(f.order, msg.ID)
	return msg
}

func (f *fakeMessageRepo) Insert(ctx context.Context, msg *document.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.add(msg)
	return nil
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, id string) (*document.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, apperr.ErrMessageNotFound
	}
	return msg, nil
}

func (f *fakeMessageRepo) FindPage(ctx context.Context, chatID string, page, size int) ([]document.Message, error) {
	var all []document.Message
	for _, id := range f.order {
		msg := f.messages[id]
		if msg.ChatID == chatID && !msg.IsDeleted() {
			all = append(all, *msg)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SentAt.After(all[j].SentAt) })
	start := page * size
	if start >= len(all) {
		return nil, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeMessageRepo) Search(ctx context.Context, chatID, term string) ([]document.Message, error) {
	var out []document.Message
	for _, id := range f.order {
		msg := f.messages[id]
		if msg.ChatID == chatID && !msg.IsDeleted() && strings.Contains(strings.ToLower(msg.Content), strings.ToLower(term)) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	var n int64
	for _, msg := range f.messages {
		if msg.ChatID == chatID && msg.SenderID != userID && !msg.IsDeleted() && !msg.IsReadBy(userID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) (*document.Message, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	msg, ok := f.messages[id]
	if !ok || msg.IsDeleted() {
		return nil, apperr.ErrMessageDeleted
	}
	msg.Content = content
	msg.EditedAt = &editedAt
	return msg, nil
}

func (f *fakeMessageRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	msg, ok := f.messages[id]
	if !ok {
		return apperr.ErrMessageNotFound
	}
	msg.DeletedAt = &deletedAt
	return nil
}

// AddReaction checks and appends under one lock, like the single
// conditional update the real collection runs.
func (f *fakeMessageRepo) AddReaction(ctx context.Context, id string, reaction document.Reaction) (*document.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, apperr.ErrMessageNotFound
	}
	for _, r := range msg.Reactions {
		if r.UserID == reaction.UserID && r.Emoji == reaction.Emoji {
			return nil, apperr.ErrDuplicateReaction
		}
	}
	msg.Reactions = append(msg.Reactions, reaction)
	return msg, nil
}

func (f *fakeMessageRepo) RemoveReaction(ctx context.Context, id, userID, emoji string) (*document.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, apperr.ErrMessageNotFound
	}
	kept := msg.Reactions[:0]
	for _, r := range msg.Reactions {
		if !(r.UserID == userID && r.Emoji == emoji) {
			kept = append(kept, r)
		}
	}
	msg.Reactions = kept
	return msg, nil
}

func (f *fakeMessageRepo) AddReadReceipt(ctx context.Context, id string, receipt document.ReadReceipt) (*document.Message, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, nil
	}
	if msg.SenderID == receipt.UserID || msg.IsReadBy(receipt.UserID) {
		return nil, nil
	}
	msg.ReadBy = append(msg.ReadBy, receipt)
	return msg, nil
}

func (f *fakeMessageRepo) FindSince(ctx context.Context, since time.Time, limit int) ([]document.Message, error) {
	var out []document.Message
	for _, id := range f.order {
		msg := f.messages[id]
		if !msg.SentAt.Before(since) {
			out = append(out, *msg)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// fakeMetadataRepo is the relational index double.
type fakeMetadataRepo struct {
	rows    map[string]*entity.MessageMetadata
	saveErr error

	setDeletedCalls int
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{rows: make(map[string]*entity.MessageMetadata)}
}

func (f *fakeMetadataRepo) Save(ctx context.Context, metadata *entity.MessageMetadata) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[metadata.MessageDocID] = metadata
	return nil
}

func (f *fakeMetadataRepo) FindByMessageDocID(ctx context.Context, docID string) (*entity.MessageMetadata, error) {
	return f.rows[docID], nil
}

func (f *fakeMetadataRepo) SetDeleted(ctx context.Context, docID string, deleted bool) error {
	f.setDeletedCalls++
	if row, ok := f.rows[docID]; ok {
		row.IsDeleted = deleted
	}
	return nil
}

func (f *fakeMetadataRepo) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var n int64
	for _, row := range f.rows {
		if row.ChatID == chatID && !row.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeMetadataRepo) ExistingDocIDs(ctx context.Context, docIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range docIDs {
		if _, ok := f.rows[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

type fakePresenceRepo struct {
	typing map[string]bool
	err    error
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{typing: make(map[string]bool)}
}

func (f *fakePresenceRepo) SetTyping(ctx context.Context, indicator document.TypingIndicator) error {
	if f.err != nil {
		return f.err
	}
	key := indicator.ChatID + "/" + indicator.UserID
	if indicator.IsTyping {
		f.typing[key] = true
	} else {
		delete(f.typing, key)
	}
	return nil
}

func (f *fakePresenceRepo) TypingUsers(ctx context.Context, chatID string) ([]string, error) {
	var out []string
	for key := range f.typing {
		if strings.HasPrefix(key, chatID+"/") {
			out = append(out, strings.TrimPrefix(key, chatID+"/"))
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users   map[string]*entity.User
	saveErr error
}

func newFakeUserStore(users ...*entity.User) *fakeUserStore {
	store := &fakeUserStore{users: make(map[string]*entity.User)}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) FindByUsernameOrEmail(ctx context.Context, term string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Username == term || u.Email == term {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Save(ctx context.Context, user *entity.User) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	f.users[user.ID] = user
	return nil
}

// fakeBroadcaster records every publish for assertion.
type fakeBroadcaster struct {
	mu        sync.Mutex
	published []broadcast.Envelope
}

func (f *fakeBroadcaster) Publish(topic, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, broadcast.Envelope{Topic: topic, Event: event, Payload: payload})
}

func (f *fakeBroadcaster) PublishToUser(userID, queue, event string, payload interface{}) {
	f.Publish(broadcast.UserQueue(userID, queue), event, payload)
}

func (f *fakeBroadcaster) events() []broadcast.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]broadcast.Envelope(nil), f.published...)
}
