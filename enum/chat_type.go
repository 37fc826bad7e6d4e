package enum

type ChatType string

const (
	ChatTypePrivate ChatType = "PRIVATE"
	ChatTypeGroup   ChatType = "GROUP"
)

func ParseChatType(s string) (ChatType, bool) {
	switch ChatType(s) {
	case ChatTypePrivate, ChatTypeGroup:
		return ChatType(s), true
	}
	return "", false
}
