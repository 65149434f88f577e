package services

import (
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
	"chathub/moderation"
	"chathub/repositories"
)

type IChatService interface {
	Conversation(channelRef string) (domain.Conversation, error)
	PostMessage(sender domain.Identity, input PostMessageInput) (domain.Message, error)
	ListMessages(channelRef string, cursor *string) ([]domain.Message, *string, error)
	SearchMessages(ctx context.Context, channelRef, terms string) ([]domain.Message, error)
}

type PostMessageInput struct {
	ChannelRef    string `validate:"required"`
	Content       string `validate:"required"`
	AttachmentIDs []string
}

type ChatService struct {
	messages repositories.IMessageRepository
	filter   *moderation.ContentFilter
	log      *slog.Logger
}

func NewChatService(messages repositories.IMessageRepository, filter *moderation.ContentFilter, log *slog.Logger) *ChatService {
	return &ChatService{messages: messages, filter: filter, log: log}
}

// Conversation returns the thread bound to the channel reference,
// creating it lazily. Two calls with the same reference return the same
// conversation.
func (s *ChatService) Conversation(channelRef string) (domain.Conversation, error) {
	return s.messages.GetOrCreateConversation(channelRef)
}

// PostMessage validates the payload, masks banned words, tags the
// detected language, and appends the message to the channel's
// conversation.
func (s *ChatService) PostMessage(sender domain.Identity, input PostMessageInput) (domain.Message, error) {
	if err := validateStruct(input); err != nil {
		return domain.Message{}, err
	}
	attachmentIDs := make([]uuid.UUID, 0, len(input.AttachmentIDs))
	for _, raw := range input.AttachmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.Message{}, errors.Ef(errors.KindValidation, "invalid attachment reference %q", raw)
		}
		attachmentIDs = append(attachmentIDs, id)
	}

	conversation, err := s.messages.GetOrCreateConversation(input.ChannelRef)
	if err != nil {
		return domain.Message{}, err
	}

	content := input.Content
	if s.filter != nil {
		content = s.filter.Mask(content)
	}
	message := domain.Message{
		ConversationID: conversation.ID,
		Sender:         sender,
		Content:        content,
		AttachmentIDs:  attachmentIDs,
	}
	if info := whatlanggo.Detect(content); info.IsReliable() {
		message.Lang = info.Lang.Iso6391()
	}

	posted, err := s.messages.Append(message)
	if err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("message posted", "conversation_id", conversation.ID, "message_id", posted.ID)
	return posted, nil
}

// ListMessages returns the thread in timestamp-ascending order. A
// channel reference without a conversation yet yields an empty list,
// not an error.
func (s *ChatService) ListMessages(channelRef string, cursor *string) ([]domain.Message, *string, error) {
	conversation, err := s.messages.ConversationByRef(channelRef)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			return []domain.Message{}, nil, nil
		}
		return nil, nil, err
	}
	return s.messages.List(conversation.ID, cursor)
}

func (s *ChatService) SearchMessages(ctx context.Context, channelRef, terms string) ([]domain.Message, error) {
	conversation, err := s.messages.ConversationByRef(channelRef)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			return []domain.Message{}, nil
		}
		return nil, err
	}
	return s.messages.Search(ctx, conversation.ID, terms)
}
