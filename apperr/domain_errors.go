package apperr

var (
	ErrChatNotFound        = NotFound("chat not found")
	ErrMessageNotFound     = NotFound("message not found")
	ErrUserNotFound        = NotFound("user not found")
	ErrNotParticipant      = Forbidden("not a participant of this chat")
	ErrLeftChat            = Forbidden("you have left this chat")
	ErrNotSender           = Forbidden("can only modify your own messages")
	ErrAdminOnly           = Forbidden("only admins can perform this action")
	ErrCreatorOnly         = Forbidden("only the creator can delete this group")
	ErrMessageDeleted      = BadRequest("cannot edit deleted messages")
	ErrSelfPrivateChat     = BadRequest("cannot create private chat with yourself")
	ErrOnlyAdmin           = BadRequest("cannot leave group as the only admin")
	ErrGroupOnly           = BadRequest("operation only valid for group chats")
	ErrDuplicateReaction   = Conflict("already reacted with this emoji")
	ErrDuplicateEntry      = Conflict("record already exists")
	ErrMetadataWriteFailed = Internal("message stored but index write failed")
)
