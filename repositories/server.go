//go:generate go run go.uber.org/mock/mockgen -source=server.go -destination=../mocks/mock_server_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
)

type IServerRepository interface {
	Create(server domain.Server) error
	Get(id uuid.UUID) (domain.Server, error)
	Patch(id uuid.UUID, apply func(*domain.Server)) (domain.Server, error)
	Delete(id uuid.UUID) error
	Join(serverID uuid.UUID, identityID string) error
	Leave(serverID uuid.UUID, identityID string) error
	IsMember(serverID uuid.UUID, identityID string) (bool, error)
	Members(serverID uuid.UUID) ([]domain.Member, error)
	Snapshot() ([]ServerRecord, error)
}

// ServerRecord is the read model consumed by the listing engine: the
// server together with its membership set and channels, taken from one
// consistent snapshot.
type ServerRecord struct {
	Server   domain.Server
	Members  []string
	Channels []domain.Channel
}

type ServerRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewServerRepository(db *badger.DB, log *slog.Logger) ServerRepository {
	return ServerRepository{db: db, log: log}
}

func serverKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("server:%s", id))
}

func memberKey(serverID uuid.UUID, identityID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", serverID, identityID))
}

func memberPrefix(serverID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("member:%s:", serverID))
}

// Create persists the server and its owner's membership record in one
// transaction: an owner is a member from the first moment.
func (s ServerRepository) Create(server domain.Server) error {
	return update(s.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, serverKey(server.ID), server); err != nil {
			return err
		}
		owner := domain.Member{IdentityID: server.OwnerID, JoinedAt: server.CreatedAt}
		return setJSON(txn, memberKey(server.ID, server.OwnerID), owner)
	})
}

func (s ServerRepository) Get(id uuid.UUID) (domain.Server, error) {
	var server domain.Server
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, serverKey(id), &server)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Server{}, errors.ErrServerNotFound
	}
	return server, err
}

// Patch applies a partial mutation inside a single transaction so that
// concurrent patches never interleave field-wise.
func (s ServerRepository) Patch(id uuid.UUID, apply func(*domain.Server)) (domain.Server, error) {
	var server domain.Server
	err := update(s.db, func(txn *badger.Txn) error {
		if err := getJSON(txn, serverKey(id), &server); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		apply(&server)
		return setJSON(txn, serverKey(id), server)
	})
	if err != nil {
		return domain.Server{}, err
	}
	return server, nil
}

// Delete removes the server and everything it owns: members, channels,
// and transitively each channel's conversation with its messages. The
// whole cascade commits or aborts as one transaction.
func (s ServerRepository) Delete(id uuid.UUID) error {
	return update(s.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(id)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		channels, err := channelsOfServer(txn, id)
		if err != nil {
			return err
		}
		for _, ch := range channels {
			if err := dropChannel(txn, ch); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, memberPrefix(id)); err != nil {
			return err
		}
		return txn.Delete(serverKey(id))
	})
}

// Join adds the identity to the membership set. The Get on the member
// key makes two concurrent joins for the same pair conflict in Badger:
// exactly one commits, the retried one observes the record and fails.
func (s ServerRepository) Join(serverID uuid.UUID, identityID string) error {
	return update(s.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(serverID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		if _, err := txn.Get(memberKey(serverID, identityID)); err == nil {
			return errors.ErrAlreadyMember
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		member := domain.Member{IdentityID: identityID, JoinedAt: time.Now().UTC()}
		return setJSON(txn, memberKey(serverID, identityID), member)
	})
}

func (s ServerRepository) Leave(serverID uuid.UUID, identityID string) error {
	return update(s.db, func(txn *badger.Txn) error {
		var server domain.Server
		if err := getJSON(txn, serverKey(serverID), &server); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		if _, err := txn.Get(memberKey(serverID, identityID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrNotMember
			}
			return err
		}
		if server.OwnerID == identityID {
			return errors.ErrOwnerCannotLeave
		}
		return txn.Delete(memberKey(serverID, identityID))
	})
}

func (s ServerRepository) IsMember(serverID uuid.UUID, identityID string) (bool, error) {
	var member bool
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(serverID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		switch _, err := txn.Get(memberKey(serverID, identityID)); {
		case err == nil:
			member = true
			return nil
		case stderrors.Is(err, badger.ErrKeyNotFound):
			return nil
		default:
			return err
		}
	})
	return member, err
}

func (s ServerRepository) Members(serverID uuid.UUID) ([]domain.Member, error) {
	var members []domain.Member
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(serverKey(serverID)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrServerNotFound
			}
			return err
		}
		var err error
		members, err = membersOfServer(txn, serverID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Snapshot reads every server with its members and channels from a
// single read transaction. The listing engine works on this immutable
// slice; concurrent membership changes never show up halfway.
func (s ServerRepository) Snapshot() ([]ServerRecord, error) {
	var records []ServerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("server:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var server domain.Server
			err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &server)
			})
			if err != nil {
				return err
			}
			members, err := membersOfServer(txn, server.ID)
			if err != nil {
				return err
			}
			channels, err := channelsOfServer(txn, server.ID)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(members))
			for _, m := range members {
				ids = append(ids, m.IdentityID)
			}
			records = append(records, ServerRecord{Server: server, Members: ids, Channels: channels})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Creation order with the id as tie-break keeps the listing stable.
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].Server, records[j].Server
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return records, nil
}

func membersOfServer(txn *badger.Txn, serverID uuid.UUID) ([]domain.Member, error) {
	prefix := memberPrefix(serverID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var members []domain.Member
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var m domain.Member
		err := it.Item().Value(func(val []byte) error {
			return unmarshal(val, &m)
		})
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}
