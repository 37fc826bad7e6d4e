package enum

type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeVideo MessageType = "VIDEO"
	MessageTypeAudio MessageType = "AUDIO"
	MessageTypeFile  MessageType = "FILE"
)

// ParseMessageType maps an incoming type string to a MessageType.
// An empty string defaults to TEXT; anything else unknown is rejected.
func ParseMessageType(s string) (MessageType, bool) {
	if s == "" {
		return MessageTypeText, true
	}
	switch MessageType(s) {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return MessageType(s), true
	}
	return "", false
}
