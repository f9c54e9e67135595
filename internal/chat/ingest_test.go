package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger/internal/mocks"
	"messenger/internal/models"
)

type broadcastCall struct {
	chatID  int
	payload interface{}
	exclude string
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(chatID int, payload interface{}, excludeConnID string) {
	f.calls = append(f.calls, broadcastCall{chatID: chatID, payload: payload, exclude: excludeConnID})
}

func TestSendDeniedForNonMember(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	router := &fakeBroadcaster{}
	ingest := NewIngest(chats, messages, users, router)

	chats.On("IsParticipant", mock.Anything, 42, 2).Return(false, nil).Once()

	_, err := ingest.Send(context.Background(), 2, 42, "hi", "", nil)

	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, router.calls)
	chats.AssertExpectations(t)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsEmptyTextContent(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	ingest := NewIngest(chats, messages, new(mocks.UserRepositoryMock), &fakeBroadcaster{})

	chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil).Twice()

	_, err := ingest.Send(context.Background(), 1, 42, "", "", nil)
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = ingest.Send(context.Background(), 1, 42, "   ", models.MessageTypeText, nil)
	require.ErrorIs(t, err, ErrInvalidContent)

	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsUnknownType(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	ingest := NewIngest(chats, new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), &fakeBroadcaster{})

	chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil).Once()

	_, err := ingest.Send(context.Background(), 1, 42, "hi", "sticker", nil)
	require.ErrorIs(t, err, ErrInvalidType)
}

func TestSendBroadcastsPersistedRecord(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	router := &fakeBroadcaster{}
	ingest := NewIngest(chats, messages, users, router)

	stored := models.Message{
		ID:        7,
		ChatID:    42,
		SenderID:  1,
		Content:   "hi",
		Type:      models.MessageTypeText,
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	}
	chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil).Once()
	messages.On("CreateMessage", mock.Anything, 42, 1, "hi", models.MessageTypeText, json.RawMessage(nil)).Return(stored, nil).Once()
	chats.On("SetLastMessage", mock.Anything, 42, 7).Return(nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice", DisplayName: "Alice"}, nil).Once()

	view, err := ingest.Send(context.Background(), 1, 42, "hi", "", nil)
	require.NoError(t, err)
	require.Equal(t, stored.ID, view.ID)
	require.NotNil(t, view.Sender)
	assert.Equal(t, "alice", view.Sender.Username)

	// the broadcast carries the canonical persisted record, sender included
	require.Len(t, router.calls, 1)
	assert.Equal(t, 42, router.calls[0].chatID)
	assert.Empty(t, router.calls[0].exclude)
	event, ok := router.calls[0].payload.(models.ServerEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventMessage, event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, stored.ID, event.Message.ID)
	assert.Equal(t, stored.CreatedAt, event.Message.CreatedAt)

	chats.AssertExpectations(t)
	messages.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSendPassesMetadataThrough(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	ingest := NewIngest(chats, messages, users, &fakeBroadcaster{})

	meta := json.RawMessage(`{"fileName":"cat.png"}`)
	stored := models.Message{ID: 9, ChatID: 42, SenderID: 1, Type: models.MessageTypeImage, Metadata: meta}

	chats.On("IsParticipant", mock.Anything, 42, 1).Return(true, nil).Once()
	messages.On("CreateMessage", mock.Anything, 42, 1, "", models.MessageTypeImage, meta).Return(stored, nil).Once()
	chats.On("SetLastMessage", mock.Anything, 42, 9).Return(nil).Once()
	users.On("GetByID", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()

	view, err := ingest.Send(context.Background(), 1, 42, "", models.MessageTypeImage, meta)
	require.NoError(t, err)
	assert.Equal(t, meta, view.Metadata)
	messages.AssertExpectations(t)
}
