//go:generate go run go.uber.org/mock/mockgen -source=attachment.go -destination=../mocks/mock_attachment_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
)

type IAttachmentRepository interface {
	Create(attachment domain.Attachment) error
	Get(id uuid.UUID) (domain.Attachment, error)
	Delete(id uuid.UUID) error
}

type AttachmentRepository struct {
	db *badger.DB
}

func NewAttachmentRepository(db *badger.DB) AttachmentRepository {
	return AttachmentRepository{db: db}
}

func attachmentKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("attachment:%s", id))
}

func (a AttachmentRepository) Create(attachment domain.Attachment) error {
	return update(a.db, func(txn *badger.Txn) error {
		return setJSON(txn, attachmentKey(attachment.ID), attachment)
	})
}

func (a AttachmentRepository) Get(id uuid.UUID) (domain.Attachment, error) {
	var attachment domain.Attachment
	err := a.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, attachmentKey(id), &attachment)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Attachment{}, errors.ErrAttachmentNotFound
	}
	return attachment, err
}

// Delete refuses to remove an attachment while any message still
// references it. The reference markers are read in the same transaction
// that deletes the record, so a concurrent post cannot slip a new
// reference past the check.
func (a AttachmentRepository) Delete(id uuid.UUID) error {
	return update(a.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(attachmentKey(id)); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrAttachmentNotFound
			}
			return err
		}
		refs, err := keysWithPrefix(txn, attachmentRefPrefix(id))
		if err != nil {
			return err
		}
		if len(refs) > 0 {
			return errors.ErrAttachmentInUse
		}
		return txn.Delete(attachmentKey(id))
	})
}
