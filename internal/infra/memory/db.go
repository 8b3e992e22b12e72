// Package memory keeps every store in process memory. It backs the "memory"
// storage driver and the service tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/aliskhannn/examprep/internal/domain/entities"
)

// DB holds the state shared by the memory stores so that deleting a card can
// cascade to its history.
type DB struct {
	mu sync.RWMutex

	cards     map[uuid.UUID]*entities.Card
	cardSeq   map[uuid.UUID]int64
	seq       int64
	history   map[uuid.UUID][]*entities.ReviewHistory
	sessions  map[uuid.UUID]*entities.Session
	topics    map[topicKey]*entities.TopicAccuracy
	topicSeen map[string][]topicKey
}

type topicKey struct {
	owner   string
	paper   string
	subject string
}

// NewDB creates an empty DB.
func NewDB() *DB {
	return &DB{
		cards:     make(map[uuid.UUID]*entities.Card),
		cardSeq:   make(map[uuid.UUID]int64),
		history:   make(map[uuid.UUID][]*entities.ReviewHistory),
		sessions:  make(map[uuid.UUID]*entities.Session),
		topics:    make(map[topicKey]*entities.TopicAccuracy),
		topicSeen: make(map[string][]topicKey),
	}
}

func (db *DB) Cards() *CardStore {
	return &CardStore{db: db}
}

func (db *DB) History() *HistoryStore {
	return &HistoryStore{db: db}
}

func (db *DB) Sessions() *SessionStore {
	return &SessionStore{db: db}
}

func (db *DB) Progress() *ProgressStore {
	return &ProgressStore{db: db}
}
