package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chat-backend/apperr"
	"chat-backend/document"
)

// MessageRepository is the document-store side of the dual write. Reaction
// and read-receipt mutations are conditional single-document updates, never
// read-modify-write, so concurrent callers cannot duplicate entries.
type MessageRepository struct {
	collection *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{collection: db.Collection("messages")}
}

// notDeleted matches live (non-tombstoned) messages.
var notDeleted = bson.M{"$eq": nil}

// Insert persists a new message. The id is generated here: ULIDs sort by
// creation time, which keeps ids monotonic-ish by store clock.
func (repo *MessageRepository) Insert(ctx context.Context, msg *document.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Reactions == nil {
		msg.Reactions = []document.Reaction{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []document.ReadReceipt{}
	}
	_, err := repo.collection.InsertOne(ctx, msg)
	return err
}

func (repo *MessageRepository) FindByID(ctx context.Context, id string) (*document.Message, error) {
	var msg document.Message
	err := repo.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindPage returns one page of live messages for a chat, newest first.
// Page index is zero-based.
func (repo *MessageRepository) FindPage(ctx context.Context, chatID string, page, size int) ([]document.Message, error) {
	filter := bson.M{"chatId": chatID, "deletedAt": notDeleted}
	opts := options.Find().
		SetSort(bson.D{{Key: "sentAt", Value: -1}}).
		SetSkip(int64(page) * int64(size)).
		SetLimit(int64(size))

	cursor, err := repo.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []document.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Search matches live message content case-insensitively within one chat.
// Results come back in store-native order.
func (repo *MessageRepository) Search(ctx context.Context, chatID, term string) ([]document.Message, error) {
	filter := bson.M{
		"chatId":    chatID,
		"deletedAt": notDeleted,
		"content":   bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"},
	}
	cursor, err := repo.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []document.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// CountUnread counts live messages in the chat not sent by userID and not
// yet carrying their read receipt.
func (repo *MessageRepository) CountUnread(ctx context.Context, chatID, userID string) (int64, error) {
	filter := bson.M{
		"chatId":        chatID,
		"deletedAt":     notDeleted,
		"senderId":      bson.M{"$ne": userID},
		"readBy.userId": bson.M{"$ne": userID},
	}
	return repo.collection.CountDocuments(ctx, filter)
}

// UpdateContent applies an edit: content replaced, editedAt stamped. The
// filter excludes tombstones so a deleted message can never be edited; a
// no-match means the message was deleted between the caller's read and the
// update. Any other failure surfaces unchanged.
func (repo *MessageRepository) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) (*document.Message, error) {
	filter := bson.M{"_id": id, "deletedAt": notDeleted}
	update := bson.M{"$set": bson.M{"content": content, "editedAt": editedAt}}
	msg, err := repo.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrMessageDeleted
	}
	return msg, err
}

// SoftDelete stamps the tombstone. Idempotent: deleting an already-deleted
// message matches nothing and returns the current document.
func (repo *MessageRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	filter := bson.M{"_id": id, "deletedAt": notDeleted}
	update := bson.M{"$set": bson.M{"deletedAt": deletedAt}}
	_, err := repo.collection.UpdateOne(ctx, filter, update)
	return err
}

// AddReaction appends a reaction only if the (user, emoji) pair is absent,
// in a single conditional update. Returns Conflict when the pair exists and
// NotFound when the message itself is missing.
func (repo *MessageRepository) AddReaction(ctx context.Context, id string, reaction document.Reaction) (*document.Message, error) {
	filter := bson.M{
		"_id": id,
		"reactions": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{"userId": reaction.UserID, "emoji": reaction.Emoji}},
		},
	}
	update := bson.M{"$push": bson.M{"reactions": reaction}}

	msg, err := repo.findOneAndUpdate(ctx, filter, update)
	if err == nil {
		return msg, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// No match: either the message is gone or the pair already exists.
	if _, findErr := repo.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, apperr.ErrDuplicateReaction
}

// RemoveReaction pulls the (user, emoji) pair. Removing a pair that is not
// there is a no-op success.
func (repo *MessageRepository) RemoveReaction(ctx context.Context, id, userID, emoji string) (*document.Message, error) {
	filter := bson.M{"_id": id}
	update := bson.M{"$pull": bson.M{"reactions": bson.M{"userId": userID, "emoji": emoji}}}

	msg, err := repo.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrMessageNotFound
	}
	return msg, err
}

// AddReadReceipt appends a receipt only if the user has none yet and is not
// the sender. Returns (nil, nil) when the receipt already exists, the reader
// sent the message, or the message is missing. All are silent skips for the
// caller.
func (repo *MessageRepository) AddReadReceipt(ctx context.Context, id string, receipt document.ReadReceipt) (*document.Message, error) {
	filter := bson.M{
		"_id":           id,
		"senderId":      bson.M{"$ne": receipt.UserID},
		"readBy.userId": bson.M{"$ne": receipt.UserID},
	}
	update := bson.M{"$push": bson.M{"readBy": receipt}}

	msg, err := repo.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	return msg, err
}

// FindSince returns messages sent at or after the cutoff, oldest first. The
// reconciler walks this window looking for documents without an index row.
func (repo *MessageRepository) FindSince(ctx context.Context, since time.Time, limit int) ([]document.Message, error) {
	filter := bson.M{"sentAt": bson.M{"$gte": since}}
	opts := options.Find().
		SetSort(bson.D{{Key: "sentAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := repo.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []document.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (repo *MessageRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*document.Message, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var msg document.Message
	err := repo.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
