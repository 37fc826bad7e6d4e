package broadcast

// Event kinds carried on chat topics.
const (
	EventMessageCreated  = "message.created"
	EventMessageEdited   = "message.edited"
	EventMessageDeleted  = "message.deleted"
	EventMessageReaction = "message.reaction"
	EventTyping          = "typing"
	EventReadReceipt     = "read-receipt"
)

const QueueReadReceipt = "read-receipt"

// Envelope is the unit of delivery: the topic it was published on, the event
// kind, and the already-enriched payload the REST layer would have returned.
type Envelope struct {
	Topic   string      `json:"topic"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Broadcaster is the injected fan-out abstraction. Publishing is
// fire-and-forget: a failed or missed delivery never propagates back into
// the write path.
type Broadcaster interface {
	// Publish fans an event out to every current subscriber of a topic.
	Publish(topic, event string, payload interface{})
	// PublishToUser addresses a single user's private queue.
	PublishToUser(userID, queue, event string, payload interface{})
}

func ChatTopic(chatID string) string {
	return "chat/" + chatID
}

func UserQueue(userID, queue string) string {
	return "user/" + userID + "/" + queue
}
