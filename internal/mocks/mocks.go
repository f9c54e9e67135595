package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"messenger/internal/models"
	"messenger/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, username, email string, passwordHash *string, displayName, profilePhoto string) (models.User, error) {
	args := m.Called(ctx, username, email, passwordHash, displayName, profilePhoto)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	args := m.Called(ctx, usernames)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int, displayName, email, username *string) (models.User, error) {
	args := m.Called(ctx, userID, displayName, email, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, query string, excludeUserID int, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, excludeUserID, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID int, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetProfilePhoto(ctx context.Context, userID int, url string) error {
	args := m.Called(ctx, userID, url)
	return args.Error(0)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, creatorID int, participantIDs []int, name string) (models.Chat, error) {
	args := m.Called(ctx, creatorID, participantIDs, name)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) ListParticipants(ctx context.Context, chatID int) ([]models.User, error) {
	args := m.Called(ctx, chatID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *ChatRepositoryMock) PeerIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) SetLastMessage(ctx context.Context, chatID int, messageID int) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID, senderID int, content, msgType string, metadata json.RawMessage) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content, msgType, metadata)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListChatMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) AddReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *ReactionRepositoryMock) RemoveReaction(ctx context.Context, messageID, userID int, emoji string) error {
	args := m.Called(ctx, messageID, userID, emoji)
	return args.Error(0)
}

func (m *ReactionRepositoryMock) ListForMessages(ctx context.Context, messageIDs []int) (map[int][]models.Reaction, error) {
	args := m.Called(ctx, messageIDs)
	var reactions map[int][]models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.(map[int][]models.Reaction)
	}
	return reactions, args.Error(1)
}

type NoteRepositoryMock struct {
	mock.Mock
}

func (m *NoteRepositoryMock) ListNotes(ctx context.Context, userID int) ([]models.Note, error) {
	args := m.Called(ctx, userID)
	var notes []models.Note
	if val := args.Get(0); val != nil {
		notes = val.([]models.Note)
	}
	return notes, args.Error(1)
}

func (m *NoteRepositoryMock) CreateNote(ctx context.Context, userID int, title, content string, tags json.RawMessage) (models.Note, error) {
	args := m.Called(ctx, userID, title, content, tags)
	var note models.Note
	if val := args.Get(0); val != nil {
		note = val.(models.Note)
	}
	return note, args.Error(1)
}

func (m *NoteRepositoryMock) UpdateNote(ctx context.Context, noteID, userID int, title, content *string, tags json.RawMessage) (models.Note, error) {
	args := m.Called(ctx, noteID, userID, title, content, tags)
	var note models.Note
	if val := args.Get(0); val != nil {
		note = val.(models.Note)
	}
	return note, args.Error(1)
}

func (m *NoteRepositoryMock) DeleteNote(ctx context.Context, noteID, userID int) error {
	args := m.Called(ctx, noteID, userID)
	return args.Error(0)
}

type AssistantClientMock struct {
	mock.Mock
}

func (m *AssistantClientMock) Reply(ctx context.Context, persona, displayName, message string) (string, error) {
	args := m.Called(ctx, persona, displayName, message)
	return args.String(0), args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
var _ repositories.NoteRepository = (*NoteRepositoryMock)(nil)
