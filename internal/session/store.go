// Package session provides the chat session store: per-chat, append-only
// message transcripts seeded with the FruitBot system prompt and greeting.
//
// Transcripts are never edited, compacted or capped; the full history is
// replayed to the model on every turn. That keeps turns faithful but means
// turn cost grows with conversation length.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/fruitify/fruitbot/internal/commerce"
)

// Greeting is the fixed second message of every new chat.
const Greeting = "Welcome to Fruitify.com! My name is FruitBot. How can I help you today?"

const systemPromptFormat = `Your name is FruitBot. You are a helpful ecommerce assistant of "Fruitify.com". ` +
	`You are there to help customers do things like find products, answer questions about products, ` +
	`add item to cart, help them make purchases, ask about their order history. ` +
	`Current chatId is %q, userId is %q, and name is %q.`

// Sentinel errors for session operations.
var (
	// ErrChatNotFound indicates the chat id does not resolve.
	ErrChatNotFound = errors.New("chat not found")
)

// UserResolver resolves user ids for the system prompt.
// Satisfied by *commerce.Store.
type UserResolver interface {
	User(id string) (*commerce.User, error)
}

// Chat is one conversation transcript owned by a user.
type Chat struct {
	ID       uuid.UUID
	UserID   string
	Messages []*ai.Message
}

// Store manages chat transcripts in memory.
// Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chats  map[uuid.UUID]*Chat
	users  UserResolver
	logger *slog.Logger
}

// New creates a session store backed by the given user resolver.
func New(users UserResolver, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		chats:  make(map[uuid.UUID]*Chat),
		users:  users,
		logger: logger,
	}
}

// CreateChat allocates a chat for the user and seeds its transcript with the
// parameterized system prompt and the fixed greeting. Fails when the user id
// does not resolve.
func (s *Store) CreateChat(userID string) (*Chat, error) {
	user, err := s.users.User(userID)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	chatID := uuid.New()
	chat := &Chat{
		ID:     chatID,
		UserID: userID,
		Messages: []*ai.Message{
			ai.NewMessage(ai.RoleSystem, nil, ai.NewTextPart(
				fmt.Sprintf(systemPromptFormat, chatID.String(), userID, user.Name))),
			ai.NewModelMessage(ai.NewTextPart(Greeting)),
		},
	}

	s.mu.Lock()
	s.chats[chatID] = chat
	s.mu.Unlock()

	s.logger.Debug("chat created", "chat_id", chatID, "user_id", userID)
	return chat, nil
}

// Chat returns the chat with the given id.
func (s *Store) Chat(chatID uuid.UUID) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrChatNotFound)
	}
	return chat, nil
}

// History returns a copy of the chat's transcript in append order.
func (s *Store) History(chatID uuid.UUID) ([]*ai.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", chatID, ErrChatNotFound)
	}
	msgs := make([]*ai.Message, len(chat.Messages))
	copy(msgs, chat.Messages)
	return msgs, nil
}

// AppendMessages appends messages to the chat transcript. Pure append: no
// message is ever edited or removed.
func (s *Store) AppendMessages(chatID uuid.UUID, msgs ...*ai.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %s: %w", chatID, ErrChatNotFound)
	}
	for _, m := range msgs {
		if m == nil {
			continue
		}
		chat.Messages = append(chat.Messages, m)
	}
	return nil
}

// MessageCount returns the transcript length.
func (s *Store) MessageCount(chatID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return 0, fmt.Errorf("chat %s: %w", chatID, ErrChatNotFound)
	}
	return len(chat.Messages), nil
}
