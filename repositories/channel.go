//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
)

type IChannelRepository interface {
	Create(channel domain.Channel) error
	Get(id uuid.UUID) (domain.Channel, error)
	ListByServer(serverID uuid.UUID) ([]domain.Channel, error)
	Patch(id uuid.UUID, apply func(*domain.Channel)) (domain.Channel, error)
	Delete(id uuid.UUID) error
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) ChannelRepository {
	return ChannelRepository{db: db}
}

// channelKey nests the channel under its server so a server cascade is
// a single prefix scan.
func channelKey(serverID, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("channel:%s:%s", serverID, id))
}

func channelPrefix(serverID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("channel:%s:", serverID))
}

// channelIndexKey maps a channel id back to its owning server.
func channelIndexKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("channel:id:%s", id))
}

func (c ChannelRepository) Create(channel domain.Channel) error {
	return update(c.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(channel.ServerID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		if err := setJSON(txn, channelKey(channel.ServerID, channel.ID), channel); err != nil {
			return err
		}
		return txn.Set(channelIndexKey(channel.ID), []byte(channel.ServerID.String()))
	})
}

func (c ChannelRepository) Get(id uuid.UUID) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		channel, err = channelByID(txn, id)
		return err
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (c ChannelRepository) ListByServer(serverID uuid.UUID) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(serverID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		var err error
		channels, err = channelsOfServer(txn, serverID)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Name < channels[j].Name
	})
	return channels, nil
}

func (c ChannelRepository) Patch(id uuid.UUID, apply func(*domain.Channel)) (domain.Channel, error) {
	var channel domain.Channel
	err := update(c.db, func(txn *badger.Txn) error {
		var err error
		channel, err = channelByID(txn, id)
		if err != nil {
			return err
		}
		apply(&channel)
		return setJSON(txn, channelKey(channel.ServerID, channel.ID), channel)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

// Delete removes the channel and cascades to its conversation and that
// conversation's messages, all in one transaction.
func (c ChannelRepository) Delete(id uuid.UUID) error {
	return update(c.db, func(txn *badger.Txn) error {
		channel, err := channelByID(txn, id)
		if err != nil {
			return err
		}
		return dropChannel(txn, channel)
	})
}

func channelByID(txn *badger.Txn, id uuid.UUID) (domain.Channel, error) {
	item, err := txn.Get(channelIndexKey(id))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Channel{}, errors.ErrChannelNotFound
		}
		return domain.Channel{}, err
	}
	var serverID uuid.UUID
	err = item.Value(func(val []byte) error {
		var parseErr error
		serverID, parseErr = uuid.Parse(string(val))
		return parseErr
	})
	if err != nil {
		return domain.Channel{}, err
	}
	var channel domain.Channel
	if err := getJSON(txn, channelKey(serverID, id), &channel); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Channel{}, errors.ErrChannelNotFound
		}
		return domain.Channel{}, err
	}
	return channel, nil
}

func channelsOfServer(txn *badger.Txn, serverID uuid.UUID) ([]domain.Channel, error) {
	prefix := channelPrefix(serverID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var channels []domain.Channel
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var channel domain.Channel
		err := it.Item().Value(func(val []byte) error {
			return unmarshal(val, &channel)
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// dropChannel deletes the channel records and its conversation within
// the caller's transaction. Used by both the channel delete and the
// server cascade.
func dropChannel(txn *badger.Txn, channel domain.Channel) error {
	if err := dropConversationByRef(txn, channel.ID.String()); err != nil {
		return err
	}
	if err := txn.Delete(channelIndexKey(channel.ID)); err != nil {
		return err
	}
	return txn.Delete(channelKey(channel.ServerID, channel.ID))
}
