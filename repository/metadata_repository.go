package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"chat-backend/entity"
)

// MetadataRepository owns the relational index rows mirrored from message
// documents: exactly one row per message, keyed by the document id.
type MetadataRepository struct {
	Repository[entity.MessageMetadata]
}

func NewMetadataRepository(db *gorm.DB) *MetadataRepository {
	return &MetadataRepository{Repository[entity.MessageMetadata]{DB: db}}
}

func (repo *MetadataRepository) FindByMessageDocID(ctx context.Context, docID string) (*entity.MessageMetadata, error) {
	var metadata entity.MessageMetadata
	err := repo.DB.WithContext(ctx).Where("message_doc_id = ?", docID).First(&metadata).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &metadata, nil
}

// SetDeleted mirrors the message tombstone onto the index row.
func (repo *MetadataRepository) SetDeleted(ctx context.Context, docID string, deleted bool) error {
	return repo.DB.WithContext(ctx).
		Model(&entity.MessageMetadata{}).
		Where("message_doc_id = ?", docID).
		Update("is_deleted", deleted).Error
}

func (repo *MetadataRepository) CountByChat(ctx context.Context, chatID string) (int64, error) {
	var count int64
	err := repo.DB.WithContext(ctx).
		Model(&entity.MessageMetadata{}).
		Where("chat_id = ? AND is_deleted = ?", chatID, false).
		Count(&count).Error
	return count, err
}

// ExistingDocIDs filters the given document ids down to those that already
// have an index row. The reconciler uses the complement to find orphans.
func (repo *MetadataRepository) ExistingDocIDs(ctx context.Context, docIDs []string) (map[string]bool, error) {
	if len(docIDs) == 0 {
		return map[string]bool{}, nil
	}
	var found []string
	err := repo.DB.WithContext(ctx).
		Model(&entity.MessageMetadata{}).
		Where("message_doc_id IN ?", docIDs).
		Pluck("message_doc_id", &found).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}
