package services

import (
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/repositories"
)

type IChannelService interface {
	Create(serverID uuid.UUID, name, topic string) (domain.Channel, error)
	Get(id uuid.UUID) (domain.Channel, error)
	ListByServer(serverID uuid.UUID) ([]domain.Channel, error)
	Update(id uuid.UUID, name, topic *string) (domain.Channel, error)
	Delete(id uuid.UUID) error
}

type ChannelService struct {
	channels repositories.IChannelRepository
}

func NewChannelService(channels repositories.IChannelRepository) *ChannelService {
	return &ChannelService{channels: channels}
}

type channelPayload struct {
	Name string `validate:"required"`
}

func (s *ChannelService) Create(serverID uuid.UUID, name, topic string) (domain.Channel, error) {
	if err := validateStruct(channelPayload{Name: name}); err != nil {
		return domain.Channel{}, err
	}
	channel := domain.Channel{
		ID:       uuid.New(),
		ServerID: serverID,
		Name:     name,
		Topic:    topic,
	}
	if err := s.channels.Create(channel); err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (s *ChannelService) Get(id uuid.UUID) (domain.Channel, error) {
	return s.channels.Get(id)
}

func (s *ChannelService) ListByServer(serverID uuid.UUID) ([]domain.Channel, error) {
	return s.channels.ListByServer(serverID)
}

func (s *ChannelService) Update(id uuid.UUID, name, topic *string) (domain.Channel, error) {
	if name != nil {
		if err := validateStruct(channelPayload{Name: *name}); err != nil {
			return domain.Channel{}, err
		}
	}
	return s.channels.Patch(id, func(channel *domain.Channel) {
		if name != nil {
			channel.Name = *name
		}
		if topic != nil {
			channel.Topic = *topic
		}
	})
}

func (s *ChannelService) Delete(id uuid.UUID) error {
	return s.channels.Delete(id)
}
