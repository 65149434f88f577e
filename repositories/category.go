//go:generate go run go.uber.org/mock/mockgen -source=category.go -destination=../mocks/mock_category_repository.go -package=mocks
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

type ICategoryRepository interface {
	Create(name, description string) (domain.Category, error)
	Get(id uuid.UUID) (domain.Category, error)
	List() ([]domain.Category, error)
	Rename(id uuid.UUID, name string) (domain.Category, error)
	Delete(id uuid.UUID) error
}

type CategoryRepository struct {
	db *badger.DB
}

func NewCategoryRepository(db *badger.DB) CategoryRepository {
	return CategoryRepository{db: db}
}

func categoryKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("category:id:%s", id))
}

// categoryNameKey is the uniqueness index: it maps a name to the owning
// category id.
func categoryNameKey(name string) []byte {
	return []byte(fmt.Sprintf("category:name:%s", name))
}

func (c CategoryRepository) Create(name, description string) (domain.Category, error) {
	category := domain.Category{ID: uuid.New(), Name: name, Description: description}
	err := update(c.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(categoryNameKey(name)); err == nil {
			return errors.ErrCategoryNameTaken
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, categoryKey(category.ID), category); err != nil {
			return err
		}
		return txn.Set(categoryNameKey(name), []byte(category.ID.String()))
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (c CategoryRepository) Get(id uuid.UUID) (domain.Category, error) {
	var category domain.Category
	err := c.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, categoryKey(id), &category)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Category{}, errors.ErrCategoryNotFound
	}
	return category, err
}

// List returns every category sorted by name.
func (c CategoryRepository) List() ([]domain.Category, error) {
	var categories []domain.Category
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("category:id:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var category domain.Category
			err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &category)
			})
			if err != nil {
				return err
			}
			categories = append(categories, category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (c CategoryRepository) Rename(id uuid.UUID, name string) (domain.Category, error) {
	var category domain.Category
	err := update(c.db, func(txn *badger.Txn) error {
		if err := getJSON(txn, categoryKey(id), &category); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrCategoryNotFound
			}
			return err
		}
		if item, err := txn.Get(categoryNameKey(name)); err == nil {
			taken := false
			_ = item.Value(func(val []byte) error {
				taken = string(val) != id.String()
				return nil
			})
			if taken {
				return errors.ErrCategoryNameTaken
			}
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete(categoryNameKey(category.Name)); err != nil {
			return err
		}
		category.Name = name
		if err := setJSON(txn, categoryKey(id), category); err != nil {
			return err
		}
		return txn.Set(categoryNameKey(name), []byte(id.String()))
	})
	if err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

func (c CategoryRepository) Delete(id uuid.UUID) error {
	return update(c.db, func(txn *badger.Txn) error {
		var category domain.Category
		if err := getJSON(txn, categoryKey(id), &category); err != nil {
			if stderrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrCategoryNotFound
			}
			return err
		}
		if err := txn.Delete(categoryNameKey(category.Name)); err != nil {
			return err
		}
		return txn.Delete(categoryKey(id))
	})
}
