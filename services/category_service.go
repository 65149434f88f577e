package services

import (
	"github.com/google/uuid"

	"chathub/domain"
	"chathub/repositories"
)

type ICategoryService interface {
	Create(name, description string) (domain.Category, error)
	Get(id uuid.UUID) (domain.Category, error)
	List() ([]domain.Category, error)
	Rename(id uuid.UUID, name string) (domain.Category, error)
	Delete(id uuid.UUID) error
}

type CategoryService struct {
	categories repositories.ICategoryRepository
}

func NewCategoryService(categories repositories.ICategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

type categoryPayload struct {
	Name string `validate:"required"`
}

func (s *CategoryService) Create(name, description string) (domain.Category, error) {
	if err := validateStruct(categoryPayload{Name: name}); err != nil {
		return domain.Category{}, err
	}
	return s.categories.Create(name, description)
}

func (s *CategoryService) Get(id uuid.UUID) (domain.Category, error) {
	return s.categories.Get(id)
}

func (s *CategoryService) List() ([]domain.Category, error) {
	return s.categories.List()
}

func (s *CategoryService) Rename(id uuid.UUID, name string) (domain.Category, error) {
	if err := validateStruct(categoryPayload{Name: name}); err != nil {
		return domain.Category{}, err
	}
	return s.categories.Rename(id, name)
}

func (s *CategoryService) Delete(id uuid.UUID) error {
	return s.categories.Delete(id)
}
