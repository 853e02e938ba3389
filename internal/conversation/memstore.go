package conversation

// MemStore is an in-memory Store used by tests and as a fallback when no
// durable location is available.
type MemStore struct {
	conversations []Conversation
	activeID      string
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load() ([]Conversation, error) {
	out := make([]Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out, nil
}

func (s *MemStore) Save(conversations []Conversation) error {
	s.conversations = make([]Conversation, len(conversations))
	copy(s.conversations, conversations)
	return nil
}

func (s *MemStore) LoadActiveID() (string, error) {
	return s.activeID, nil
}

func (s *MemStore) SaveActiveID(id string) error {
	s.activeID = id
	return nil
}
