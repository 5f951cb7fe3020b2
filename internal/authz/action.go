package authz

// Action enumerates everything the permission engine can decide on. Adding
// an action without a rule in the table makes Check deny it, so a new
// operation forces an explicit permission decision.
type Action string

const (
	ActionCreateConversation  Action = "conversation.create"
	ActionReadConversation    Action = "conversation.read"
	ActionUpdateConversation  Action = "conversation.update"
	ActionDeleteConversation  Action = "conversation.delete"
	ActionArchiveConversation Action = "conversation.archive"
	ActionLeaveConversation   Action = "conversation.leave"
	ActionAddParticipant      Action = "participant.add"
	ActionRemoveParticipant   Action = "participant.remove"
	ActionChangeRole          Action = "participant.change_role"
	ActionSendMessage         Action = "message.send"
	ActionReadMessage         Action = "message.read"
	ActionEditMessage         Action = "message.edit"
	ActionDeleteMessage       Action = "message.delete"
	ActionReactToMessage      Action = "message.react"
	ActionPinMessage          Action = "message.pin"
	ActionSendBroadcast       Action = "message.broadcast"
)
