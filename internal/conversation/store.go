package conversation

// Store persists the conversation collection and the active conversation id.
// Writes are full rewrites, mirrored after every manager mutation.
type Store interface {
	Load() ([]Conversation, error)
	Save(conversations []Conversation) error
	LoadActiveID() (string, error)
	SaveActiveID(id string) error
}
