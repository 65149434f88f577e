package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/services"
)

type MessageHandler struct {
	chat        services.IChatService
	attachments services.IAttachmentService
	log         *slog.Logger
}

type postMessageRequest struct {
	Content       string   `json:"content"`
	AttachmentIDs []string `json:"attachment_ids"`
}

type messageResponse struct {
	ID          uuid.UUID           `json:"id"`
	Sender      string              `json:"sender"`
	SenderID    string              `json:"sender_id"`
	Content     string              `json:"content"`
	Lang        string              `json:"lang,omitempty"`
	Attachments []domain.Attachment `json:"attachments"`
	Timestamp   time.Time           `json:"timestamp"`
}

type listMessagesResponse struct {
	Messages   []messageResponse `json:"messages"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

// List returns the channel's thread in timestamp order. With ?search=
// it runs a full-text query instead; ?cursor= resumes a previous page.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	channelRef := chi.URLParam(r, "channelRef")

	if terms := r.URL.Query().Get("search"); terms != "" {
		messages, err := h.chat.SearchMessages(r.Context(), channelRef, terms)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		h.respondList(w, messages, nil)
		return
	}

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}
	messages, next, err := h.chat.ListMessages(channelRef, cursor)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	h.respondList(w, messages, next)
}

func (h *MessageHandler) Post(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r, h.log)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	message, err := h.chat.PostMessage(identity, services.PostMessageInput{
		ChannelRef:    chi.URLParam(r, "channelRef"),
		Content:       req.Content,
		AttachmentIDs: req.AttachmentIDs,
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	resp, err := h.toResponse(message)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *MessageHandler) respondList(w http.ResponseWriter, messages []domain.Message, next *string) {
	out := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		resp, err := h.toResponse(message)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, listMessagesResponse{Messages: out, NextCursor: next})
}

// toResponse nests the full attachment records in place of the ids.
func (h *MessageHandler) toResponse(message domain.Message) (messageResponse, error) {
	attachments := make([]domain.Attachment, 0, len(message.AttachmentIDs))
	for _, id := range message.AttachmentIDs {
		attachment, err := h.attachments.Get(id)
		if err != nil {
			return messageResponse{}, err
		}
		attachments = append(attachments, attachment)
	}
	return messageResponse{
		ID:          message.ID,
		Sender:      message.Sender.Username,
		SenderID:    message.Sender.ID,
		Content:     message.Content,
		Lang:        message.Lang,
		Attachments: attachments,
		Timestamp:   message.Timestamp,
	}, nil
}
