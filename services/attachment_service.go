package services

import (
	"time"

	"github.com/google/uuid"

	"chathub/domain"
	"chathub/errors"
	"chathub/repositories"
	"chathub/storage"
)

type IAttachmentService interface {
	Upload(data []byte, pathHint string, sender domain.Identity) (domain.Attachment, error)
	Get(id uuid.UUID) (domain.Attachment, error)
	Content(id uuid.UUID) ([]byte, domain.Attachment, error)
	Delete(id uuid.UUID) error
}

type AttachmentService struct {
	attachments repositories.IAttachmentRepository
	blobs       storage.BlobStore
}

func NewAttachmentService(attachments repositories.IAttachmentRepository, blobs storage.BlobStore) *AttachmentService {
	return &AttachmentService{attachments: attachments, blobs: blobs}
}

// Upload stores the bytes in the blob store and records the attachment.
func (s *AttachmentService) Upload(data []byte, pathHint string, sender domain.Identity) (domain.Attachment, error) {
	if len(data) == 0 {
		return domain.Attachment{}, errors.E(errors.KindValidation, "attachment is empty")
	}
	path, contentType, err := s.blobs.Store(data, pathHint)
	if err != nil {
		return domain.Attachment{}, err
	}
	attachment := domain.Attachment{
		ID:          uuid.New(),
		FilePath:    path,
		ContentType: contentType,
		SenderID:    sender.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.attachments.Create(attachment); err != nil {
		return domain.Attachment{}, err
	}
	return attachment, nil
}

func (s *AttachmentService) Get(id uuid.UUID) (domain.Attachment, error) {
	return s.attachments.Get(id)
}

func (s *AttachmentService) Content(id uuid.UUID) ([]byte, domain.Attachment, error) {
	attachment, err := s.attachments.Get(id)
	if err != nil {
		return nil, domain.Attachment{}, err
	}
	data, err := s.blobs.Fetch(attachment.FilePath)
	if err != nil {
		return nil, domain.Attachment{}, err
	}
	return data, attachment, nil
}

// Delete fails while any message still references the attachment.
func (s *AttachmentService) Delete(id uuid.UUID) error {
	return s.attachments.Delete(id)
}
