//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
)

type IMessageRepository interface {
	GetOrCreateConversation(channelRef string) (domain.Conversation, error)
	GetConversation(id uuid.UUID) (domain.Conversation, error)
	ConversationByRef(channelRef string) (domain.Conversation, error)
	Append(message domain.Message) (domain.Message, error)
	List(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error)
	Search(ctx context.Context, conversationID uuid.UUID, terms string) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	index         *bluge.Writer
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository wires the message store. The bluge writer is
// optional; without it Search is unavailable but everything else works.
func NewMessageRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, index: index, log: log, limitMessages: limitMessages}
}

func conversationKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("conv:%s", id))
}

// conversationRefKey maps the opaque channel reference to the single
// conversation bound to it.
func conversationRefKey(channelRef string) []byte {
	return []byte(fmt.Sprintf("conv:bychan:%s", channelRef))
}

// conversationClockKey holds the last assigned message timestamp in
// nanoseconds. Reading and rewriting it on every append serializes
// concurrent posts to the same conversation.
func conversationClockKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("convclock:%s", id))
}

// messageKey is formatted as "msg:{conversation}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographic order chronological.
//  2. The UUID suffix disambiguates two messages in the same nanosecond.
func messageKey(conversationID uuid.UUID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", conversationID, at.UnixNano(), id))
}

func messagePrefix(conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", conversationID))
}

func attachmentRefKey(attachmentID, messageID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("attref:%s:%s", attachmentID, messageID))
}

func attachmentRefPrefix(attachmentID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("attref:%s:", attachmentID))
}

// GetOrCreateConversation is idempotent: the first caller for a channel
// reference creates the conversation, every later caller gets it back.
func (m MessageRepository) GetOrCreateConversation(channelRef string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := update(m.db, func(txn *badger.Txn) error {
		item, err := txn.Get(conversationRefKey(channelRef))
		if err == nil {
			var id uuid.UUID
			if err := item.Value(func(val []byte) error {
				var parseErr error
				id, parseErr = uuid.Parse(string(val))
				return parseErr
			}); err != nil {
				return err
			}
			return getJSON(txn, conversationKey(id), &conversation)
		}
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		conversation = domain.Conversation{
			ID:         uuid.New(),
			ChannelRef: channelRef,
			CreatedAt:  time.Now().UTC(),
		}
		if err := setJSON(txn, conversationKey(conversation.ID), conversation); err != nil {
			return err
		}
		return txn.Set(conversationRefKey(channelRef), []byte(conversation.ID.String()))
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

func (m MessageRepository) GetConversation(id uuid.UUID) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := m.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, conversationKey(id), &conversation)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	return conversation, err
}

// ConversationByRef resolves the conversation bound to a channel
// reference without creating one.
func (m MessageRepository) ConversationByRef(channelRef string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationRefKey(channelRef))
		if err != nil {
			return err
		}
		var id uuid.UUID
		if err := item.Value(func(val []byte) error {
			var parseErr error
			id, parseErr = uuid.Parse(string(val))
			return parseErr
		}); err != nil {
			return err
		}
		return getJSON(txn, conversationKey(id), &conversation)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return conversation, nil
}

// Append assigns the message id and a timestamp strictly later than the
// conversation's previous message, validates the attachment references,
// and persists the message with its reference markers in one transaction.
// The strict ordering keeps the msg: key order equal to insertion order
// even when the wall clock stalls or jumps back.
func (m MessageRepository) Append(message domain.Message) (domain.Message, error) {
	message.ID = uuid.New()
	err := update(m.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(conversationKey(message.ConversationID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrConversationNotFound
			}
			return err
		}
		for _, attID := range message.AttachmentIDs {
			if _, err := txn.Get(attachmentKey(attID)); err != nil {
				if stderrors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: %s", errors.ErrUnknownAttachment, attID)
				}
				return err
			}
		}

		at := time.Now().UTC()
		clockKey := conversationClockKey(message.ConversationID)
		if item, err := txn.Get(clockKey); err == nil {
			var last int64
			if err := item.Value(func(val []byte) error {
				var parseErr error
				last, parseErr = strconv.ParseInt(string(val), 10, 64)
				return parseErr
			}); err != nil {
				return err
			}
			if at.UnixNano() <= last {
				at = time.Unix(0, last+1).UTC()
			}
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(clockKey, []byte(strconv.FormatInt(at.UnixNano(), 10))); err != nil {
			return err
		}
		message.Timestamp = at

		if err := setJSON(txn, messageKey(message.ConversationID, at, message.ID), message); err != nil {
			return err
		}
		for _, attID := range message.AttachmentIDs {
			if err := txn.Set(attachmentRefKey(attID, message.ID), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	m.indexMessage(message)
	return message, nil
}

// List returns messages in timestamp-ascending order. The cursor is the
// key remainder of the last returned message; passing it back resumes
// the scan right after it. A nil returned cursor means the end.
func (m MessageRepository) List(conversationID uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	exhausted := true
	err := m.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(conversationKey(conversationID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrConversationNotFound
			}
			return err
		}
		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				exhausted = false
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			var message domain.Message
			if err := item.Value(func(val []byte) error {
				return unmarshal(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if exhausted || lastKey == "" {
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// Search runs a full-text match over the conversation's messages and
// returns the hits in timestamp order. Hits whose message was removed
// by a cascade since indexing are skipped.
func (m MessageRepository) Search(ctx context.Context, conversationID uuid.UUID, terms string) ([]domain.Message, error) {
	if m.index == nil {
		return nil, errors.E(errors.KindValidation, "message search is disabled")
	}
	reader, err := m.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(conversationID.String()).SetField("conversation"))

	limit := 50
	if m.limitMessages != nil {
		limit = *m.limitMessages
	}
	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var keys []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				keys = append(keys, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	var messages []domain.Message
	err = m.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			var message domain.Message
			switch err := getJSON(txn, []byte(key), &message); {
			case err == nil:
				messages = append(messages, message)
			case stderrors.Is(err, badger.ErrKeyNotFound):
				continue
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
	return messages, nil
}

// indexMessage feeds the search index after a successful commit. Index
// failures are logged, never surfaced: search is best-effort, the store
// is the source of truth.
func (m MessageRepository) indexMessage(message domain.Message) {
	if m.index == nil {
		return
	}
	key := string(messageKey(message.ConversationID, message.Timestamp, message.ID))
	doc := bluge.NewDocument(key)
	doc.AddField(bluge.NewTextField("content", message.Content))
	doc.AddField(bluge.NewKeywordField("conversation", message.ConversationID.String()))
	if err := m.index.Update(doc.ID(), doc); err != nil {
		m.log.Error("indexing message failed", "message_id", message.ID, "error", err)
	}
}

// dropConversationByRef removes the conversation bound to the channel
// reference together with its clock, messages, and the attachment
// reference markers those messages held. Part of the channel/server
// cascade, so it works within the caller's transaction.
func dropConversationByRef(txn *badger.Txn, channelRef string) error {
	item, err := txn.Get(conversationRefKey(channelRef))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var conversationID uuid.UUID
	if err := item.Value(func(val []byte) error {
		var parseErr error
		conversationID, parseErr = uuid.Parse(string(val))
		return parseErr
	}); err != nil {
		return err
	}

	prefix := messagePrefix(conversationID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	var msgKeys [][]byte
	var refKeys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		msgKeys = append(msgKeys, item.KeyCopy(nil))
		var message domain.Message
		if err := item.Value(func(val []byte) error {
			return unmarshal(val, &message)
		}); err != nil {
			it.Close()
			return err
		}
		for _, attID := range message.AttachmentIDs {
			refKeys = append(refKeys, attachmentRefKey(attID, message.ID))
		}
	}
	it.Close()

	for _, key := range append(msgKeys, refKeys...) {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	if err := txn.Delete(conversationClockKey(conversationID)); err != nil {
		return err
	}
	if err := txn.Delete(conversationKey(conversationID)); err != nil {
		return err
	}
	return txn.Delete(conversationRefKey(channelRef))
}
