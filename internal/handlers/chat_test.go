package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/chat"
	"messenger/internal/mocks"
	"messenger/internal/models"
)

func sqlString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

type chatTestDeps struct {
	chats     *mocks.ChatRepositoryMock
	messages  *mocks.MessageRepositoryMock
	reactions *mocks.ReactionRepositoryMock
	users     *mocks.UserRepositoryMock
}

type discardBroadcaster struct{}

func (discardBroadcaster) Broadcast(chatID int, payload interface{}, excludeConnID string) {}

func setupChatRouter(deps chatTestDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)

	ingest := chat.NewIngest(deps.chats, deps.messages, deps.users, discardBroadcaster{})
	h := NewChatHandler(deps.chats, deps.messages, deps.reactions, deps.users, ingest)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", 1) })
	r.GET("/api/chats", h.ListChats)
	r.POST("/api/chats", h.CreateChat)
	r.GET("/api/chats/:chat_id/messages", h.GetChatMessages)
	r.POST("/api/chats/:chat_id/messages", h.PostChatMessage)
	r.POST("/api/chats/:chat_id/messages/:message_id/reactions", h.AddReaction)
	r.DELETE("/api/chats/:chat_id/messages/:message_id/reactions", h.RemoveReaction)
	return r
}

func newChatTestDeps() chatTestDeps {
	return chatTestDeps{
		chats:     &mocks.ChatRepositoryMock{},
		messages:  &mocks.MessageRepositoryMock{},
		reactions: &mocks.ReactionRepositoryMock{},
		users:     &mocks.UserRepositoryMock{},
	}
}

func TestListChatsHydratesParticipants(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("ListChatsForUser", mock.Anything, 1).
		Return([]models.Chat{{ID: 42, Name: sqlString("pair")}}, nil)
	deps.chats.On("ListParticipants", mock.Anything, 42).
		Return([]models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil)

	r := setupChatRouter(deps)
	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Chats []models.ChatView `json:"chats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, "pair", resp.Chats[0].Name)
	assert.Len(t, resp.Chats[0].Participants, 2)
}

func TestCreateChatSkipsUnknownAndSelf(t *testing.T) {
	deps := newChatTestDeps()
	deps.users.On("GetByUsernames", mock.Anything, []string{"alice", "bob", "ghost"}).
		Return([]models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil)
	deps.chats.On("CreateChat", mock.Anything, 1, []int{2}, "").
		Return(models.Chat{ID: 42}, nil)
	deps.chats.On("ListParticipants", mock.Anything, 42).
		Return([]models.User{{ID: 1}, {ID: 2}}, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats", gin.H{
		"participants": []string{"alice", "bob", "ghost"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	deps.chats.AssertExpectations(t)
}

func TestCreateChatNoValidParticipants(t *testing.T) {
	deps := newChatTestDeps()
	deps.users.On("GetByUsernames", mock.Anything, []string{"ghost"}).
		Return([]models.User{}, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats", gin.H{
		"participants": []string{"ghost"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no valid participants found")
	deps.chats.AssertNotCalled(t, "CreateChat")
}

func TestGetChatMessagesDeniedForNonMember(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(false, nil)

	r := setupChatRouter(deps)
	req := httptest.NewRequest(http.MethodGet, "/api/chats/42/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	deps.messages.AssertNotCalled(t, "ListChatMessages")
}

func TestGetChatMessagesWithReactions(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)
	deps.messages.On("ListChatMessages", mock.Anything, 42).
		Return([]models.Message{
			{ID: 10, ChatID: 42, SenderID: 2, Content: "hi", Type: models.MessageTypeText},
			{ID: 11, ChatID: 42, SenderID: 1, Content: "hey", Type: models.MessageTypeText},
		}, nil)
	deps.chats.On("ListParticipants", mock.Anything, 42).
		Return([]models.User{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil)
	deps.reactions.On("ListForMessages", mock.Anything, []int{10, 11}).
		Return(map[int][]models.Reaction{
			10: {{ID: 1, MessageID: 10, UserID: 1, Emoji: "👍"}},
		}, nil)

	r := setupChatRouter(deps)
	req := httptest.NewRequest(http.MethodGet, "/api/chats/42/messages", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []models.MessageView `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Len(t, resp.Messages[0].Reactions, 1)
	assert.Empty(t, resp.Messages[1].Reactions)
	require.NotNil(t, resp.Messages[0].Sender)
	assert.Equal(t, "bob", resp.Messages[0].Sender.Username)
}

func TestPostChatMessagePersistsAndReturnsView(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)
	deps.messages.On("CreateMessage", mock.Anything, 42, 1, "hello", models.MessageTypeText, mock.Anything).
		Return(models.Message{ID: 10, ChatID: 42, SenderID: 1, Content: "hello", Type: models.MessageTypeText}, nil)
	deps.chats.On("SetLastMessage", mock.Anything, 42, 10).Return(nil)
	deps.users.On("GetByID", mock.Anything, 1).
		Return(models.User{ID: 1, Username: "alice"}, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats/42/messages", gin.H{"content": "hello"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
	deps.chats.AssertExpectations(t)
}

func TestPostChatMessageInvalidChatID(t *testing.T) {
	deps := newChatTestDeps()

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats/abc/messages", gin.H{"content": "hello"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostChatMessageEmptyContent(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats/42/messages", gin.H{"content": "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	deps.messages.AssertNotCalled(t, "CreateMessage")
}

func TestAddReactionUpserts(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)
	deps.messages.On("GetMessage", mock.Anything, 10).
		Return(models.Message{ID: 10, ChatID: 42}, nil)
	deps.reactions.On("AddReaction", mock.Anything, 10, 1, "🔥").
		Return(models.Reaction{ID: 3, MessageID: 10, UserID: 1, Emoji: "🔥"}, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats/42/messages/10/reactions", gin.H{"emoji": "🔥"})

	require.Equal(t, http.StatusCreated, rec.Code)
	deps.reactions.AssertExpectations(t)
}

func TestAddReactionWrongChat(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)
	deps.messages.On("GetMessage", mock.Anything, 10).
		Return(models.Message{ID: 10, ChatID: 99}, nil)

	r := setupChatRouter(deps)
	rec := postJSON(t, r, http.MethodPost, "/api/chats/42/messages/10/reactions", gin.H{"emoji": "🔥"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	deps.reactions.AssertNotCalled(t, "AddReaction")
}

func TestRemoveReactionRequiresEmoji(t *testing.T) {
	deps := newChatTestDeps()

	r := setupChatRouter(deps)
	req := httptest.NewRequest(http.MethodDelete, "/api/chats/42/messages/10/reactions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveReaction(t *testing.T) {
	deps := newChatTestDeps()
	deps.chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil)
	deps.messages.On("GetMessage", mock.Anything, 10).
		Return(models.Message{ID: 10, ChatID: 42}, nil)
	deps.reactions.On("RemoveReaction", mock.Anything, 10, 1, "🔥").Return(nil)

	r := setupChatRouter(deps)
	req := httptest.NewRequest(http.MethodDelete, "/api/chats/42/messages/10/reactions?emoji=🔥", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	deps.reactions.AssertExpectations(t)
}

func TestSearchUsersShortQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &mocks.UserRepositoryMock{}
	h := NewUserHandler(users)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", 1) })
	r.GET("/api/users/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?q=a", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertNotCalled(t, "Search")
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &mocks.UserRepositoryMock{}
	users.On("Search", mock.Anything, "bo", 1, 10).
		Return([]models.User{{ID: 2, Username: "bob"}}, nil)
	h := NewUserHandler(users)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", 1) })
	r.GET("/api/users/search", h.Search)

	req := httptest.NewRequest(http.MethodGet, "/api/users/search?q=bo", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob")
	users.AssertExpectations(t)
}
