package services

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"chathub/domain"
	"chathub/errors"
	"chathub/query"
	"chathub/repositories"
)

type IServerService interface {
	Create(input CreateServerInput) (domain.Server, error)
	Get(id uuid.UUID) (domain.Server, error)
	Update(id uuid.UUID, input UpdateServerInput) (domain.Server, error)
	Delete(id uuid.UUID) error
	Join(serverID uuid.UUID, identity domain.Identity) error
	Leave(serverID uuid.UUID, identity domain.Identity) error
	IsMember(serverID uuid.UUID, identity domain.Identity) (bool, error)
	List(params query.Params, caller *domain.Identity) ([]query.Projection, error)
}

// CreateServerInput is the full-create payload: name, owner, and
// category are mandatory here, unlike the patch-style update.
type CreateServerInput struct {
	Name        string `validate:"required"`
	OwnerID     string `validate:"required"`
	CategoryID  string `validate:"required,uuid"`
	Description string
}

// UpdateServerInput carries only the fields the caller wants to change.
type UpdateServerInput struct {
	Name        *string
	CategoryID  *string
	Description *string
}

type ServerService struct {
	servers    repositories.IServerRepository
	categories repositories.ICategoryRepository
	log        *slog.Logger
}

func NewServerService(servers repositories.IServerRepository, categories repositories.ICategoryRepository, log *slog.Logger) *ServerService {
	return &ServerService{servers: servers, categories: categories, log: log}
}

func (s *ServerService) Create(input CreateServerInput) (domain.Server, error) {
	if err := validateStruct(input); err != nil {
		return domain.Server{}, err
	}
	categoryID, err := uuid.Parse(input.CategoryID)
	if err != nil {
		return domain.Server{}, errors.Wrap(errors.KindValidation, err, "invalid category id")
	}
	if _, err := s.categories.Get(categoryID); err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			return domain.Server{}, errors.Ef(errors.KindValidation, "unknown category %s", categoryID)
		}
		return domain.Server{}, err
	}

	server := domain.Server{
		ID:          uuid.New(),
		Name:        input.Name,
		OwnerID:     input.OwnerID,
		CategoryID:  categoryID,
		Description: input.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.servers.Create(server); err != nil {
		return domain.Server{}, err
	}
	s.log.Info("server created", "server_id", server.ID, "owner", server.OwnerID)
	return server, nil
}

func (s *ServerService) Get(id uuid.UUID) (domain.Server, error) {
	return s.servers.Get(id)
}

// Update applies a partial mutation; fields left nil keep their value.
func (s *ServerService) Update(id uuid.UUID, input UpdateServerInput) (domain.Server, error) {
	var categoryID *uuid.UUID
	if input.CategoryID != nil {
		parsed, err := uuid.Parse(*input.CategoryID)
		if err != nil {
			return domain.Server{}, errors.Wrap(errors.KindValidation, err, "invalid category id")
		}
		if _, err := s.categories.Get(parsed); err != nil {
			if errors.KindOf(err) == errors.KindNotFound {
				return domain.Server{}, errors.Ef(errors.KindValidation, "unknown category %s", parsed)
			}
			return domain.Server{}, err
		}
		categoryID = &parsed
	}
	if input.Name != nil && *input.Name == "" {
		return domain.Server{}, errors.E(errors.KindValidation, "name cannot be empty")
	}

	return s.servers.Patch(id, func(server *domain.Server) {
		if input.Name != nil {
			server.Name = *input.Name
		}
		if categoryID != nil {
			server.CategoryID = *categoryID
		}
		if input.Description != nil {
			server.Description = *input.Description
		}
	})
}

func (s *ServerService) Delete(id uuid.UUID) error {
	if err := s.servers.Delete(id); err != nil {
		return err
	}
	s.log.Info("server deleted", "server_id", id)
	return nil
}

func (s *ServerService) Join(serverID uuid.UUID, identity domain.Identity) error {
	return s.servers.Join(serverID, identity.ID)
}

func (s *ServerService) Leave(serverID uuid.UUID, identity domain.Identity) error {
	return s.servers.Leave(serverID, identity.ID)
}

func (s *ServerService) IsMember(serverID uuid.UUID, identity domain.Identity) (bool, error) {
	return s.servers.IsMember(serverID, identity.ID)
}

// List feeds one consistent snapshot through the query pipeline.
func (s *ServerService) List(params query.Params, caller *domain.Identity) ([]query.Projection, error) {
	records, err := s.servers.Snapshot()
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List()
	if err != nil {
		return nil, err
	}
	names := lo.SliceToMap(categories, func(c domain.Category) (uuid.UUID, string) {
		return c.ID, c.Name
	})
	return query.Run(params, caller, records, names)
}
