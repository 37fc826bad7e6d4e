package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"chat-backend/entity"
)

// Reconciler repairs the gap the dual write can leave behind: a message
// durable in the content store whose index row never landed. It scans a
// recent window of documents and inserts the missing rows, and converges
// the deleted flag for tombstoned documents whose mirror update was lost.
type Reconciler struct {
	messages MessageRepository
	metadata MetadataRepository
	logger   *logrus.Logger
	window   time.Duration
	batch    int
}

func NewReconciler(messages MessageRepository, metadata MetadataRepository, logger *logrus.Logger, window time.Duration, batch int) *Reconciler {
	if window <= 0 {
		window = time.Hour
	}
	if batch <= 0 {
		batch = 500
	}
	return &Reconciler{
		messages: messages,
		metadata: metadata,
		logger:   logger,
		window:   window,
		batch:    batch,
	}
}

// ReconcileOnce runs a single repair pass and reports how many index rows it
// created. Individual failures are logged and skipped; the next pass picks
// them up again because the scan window overlaps.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	since := time.Now().Add(-r.window)
	messages, err := r.messages.FindSince(ctx, since, r.batch)
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, nil
	}

	docIDs := make([]string, 0, len(messages))
	for i := range messages {
		docIDs = append(docIDs, messages[i].ID)
	}
	existing, err := r.metadata.ExistingDocIDs(ctx, docIDs)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range messages {
		msg := &messages[i]
		if existing[msg.ID] {
			if msg.IsDeleted() {
				row, err := r.metadata.FindByMessageDocID(ctx, msg.ID)
				if err != nil {
					r.logger.WithError(err).Warnf("Reconciler: failed to load index row for %s", msg.ID)
					continue
				}
				// Only rewrite the row when the tombstone mirror was lost.
				if row != nil && !row.IsDeleted {
					if err := r.metadata.SetDeleted(ctx, msg.ID, true); err != nil {
						r.logger.WithError(err).Warnf("Reconciler: failed to converge delete flag for %s", msg.ID)
					}
				}
			}
			continue
		}
		row := &entity.MessageMetadata{
			ChatID:       msg.ChatID,
			SenderID:     msg.SenderID,
			MessageDocID: msg.ID,
			MessageType:  msg.Type,
			IsDeleted:    msg.IsDeleted(),
			SentAt:       msg.SentAt,
		}
		if err := r.metadata.Save(ctx, row); err != nil {
			r.logger.WithError(err).Warnf("Reconciler: failed to insert index row for %s", msg.ID)
			continue
		}
		repaired++
	}
	if repaired > 0 {
		r.logger.Infof("Reconciler repaired %d index rows", repaired)
	}
	return repaired, nil
}

// Run loops ReconcileOnce on the given interval until the context is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				r.logger.WithError(err).Error("Reconciler pass failed")
			}
		}
	}
}
