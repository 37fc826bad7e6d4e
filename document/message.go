package document

import (
	"time"

	"chat-backend/enum"
)

// Message is the canonical message document in the content store. Reactions
// and read receipts are embedded; both are mutated only through conditional
// array updates so concurrent writers cannot duplicate entries.
type Message struct {
	ID       string           `bson:"_id" json:"id"`
	ChatID   string           `bson:"chatId" json:"chatId"`
	SenderID string           `bson:"senderId" json:"senderId"`
	Content  string           `bson:"content" json:"content"`
	Type     enum.MessageType `bson:"messageType" json:"messageType"`

	FileMeta *FileMeta `bson:"fileMeta,omitempty" json:"fileMeta,omitempty"`
	ReplyTo  string    `bson:"replyTo,omitempty" json:"replyTo,omitempty"`

	SentAt    time.Time  `bson:"sentAt" json:"sentAt"`
	EditedAt  *time.Time `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`

	Reactions []Reaction    `bson:"reactions" json:"reactions"`
	ReadBy    []ReadReceipt `bson:"readBy" json:"readBy"`
}

func (m *Message) IsDeleted() bool { return m.DeletedAt != nil }

// IsReadBy reports whether userID already has a read receipt on the message.
func (m *Message) IsReadBy(userID string) bool {
	for _, rb := range m.ReadBy {
		if rb.UserID == userID {
			return true
		}
	}
	return false
}

type FileMeta struct {
	FileName     string `bson:"fileName,omitempty" json:"fileName,omitempty"`
	FileSize     int64  `bson:"fileSize,omitempty" json:"fileSize,omitempty"`
	MimeType     string `bson:"mimeType,omitempty" json:"mimeType,omitempty"`
	Duration     int    `bson:"duration,omitempty" json:"duration,omitempty"`
	ThumbnailURL string `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
}

type Reaction struct {
	UserID    string    `bson:"userId" json:"userId"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type ReadReceipt struct {
	UserID string    `bson:"userId" json:"userId"`
	ReadAt time.Time `bson:"readAt" json:"readAt"`
}
