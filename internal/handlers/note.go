package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger/internal/repositories"
)

// NoteHandler manages personal note endpoints.
type NoteHandler struct {
	notes repositories.NoteRepository
}

// NewNoteHandler builds a NoteHandler.
func NewNoteHandler(notes repositories.NoteRepository) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// ListNotes returns the caller's notes, most recently updated first.
func (h *NoteHandler) ListNotes(c *gin.Context) {
	userID := c.GetInt("userID")

	notes, err := h.notes.ListNotes(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// CreateNote stores a new note for the caller.
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req struct {
		Title   string          `json:"title"`
		Content string          `json:"content"`
		Tags    json.RawMessage `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		req.Title = "Untitled Note"
	}

	userID := c.GetInt("userID")
	note, err := h.notes.CreateNote(c.Request.Context(), userID, req.Title, req.Content, req.Tags)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create note"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Note created successfully",
		"note":    note,
	})
}

// UpdateNote applies partial changes to a note owned by the caller.
func (h *NoteHandler) UpdateNote(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("note_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return
	}

	var req struct {
		Title   *string         `json:"title"`
		Content *string         `json:"content"`
		Tags    json.RawMessage `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID := c.GetInt("userID")
	note, err := h.notes.UpdateNote(c.Request.Context(), noteID, userID, req.Title, req.Content, req.Tags)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "note not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Note updated successfully",
		"note":    note,
	})
}

// DeleteNote removes a note owned by the caller.
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	noteID, err := strconv.Atoi(c.Param("note_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid note id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.notes.DeleteNote(c.Request.Context(), noteID, userID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNoteNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "note not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted successfully"})
}
