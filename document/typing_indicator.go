package document

import "time"

// TypingIndicator is the ephemeral presence record kept in the TTL store.
// Absence is canonical "not typing"; the record self-expires, so a client
// that disconnects mid-typing heals without a disconnect hook.
type TypingIndicator struct {
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	IsTyping  bool      `json:"isTyping"`
	Timestamp time.Time `json:"timestamp"`
}
