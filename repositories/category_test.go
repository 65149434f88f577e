package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/database"
	"github.com/stretchr/testify/require"

	"chathub/errors"
)

func Test_Create_Category_And_Get(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	created, err := repository.Create("gaming", "")
	req.NoError(err)
	req.NotEqual(uuid.Nil, created.ID)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(created, fetched)
}

func Test_Category_Description_Survives_Roundtrip_And_Rename(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	created, err := repository.Create("gaming", "tournaments and lan parties")
	req.NoError(err)
	req.Equal("tournaments and lan parties", created.Description)

	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal("tournaments and lan parties", fetched.Description)

	renamed, err := repository.Rename(created.ID, "esports")
	req.NoError(err)
	req.Equal("tournaments and lan parties", renamed.Description)
}

func Test_Category_Name_Is_Unique(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	_, err = repository.Create("gaming", "")
	req.NoError(err)

	_, err = repository.Create("gaming", "")
	req.ErrorIs(err, errors.ErrCategoryNameTaken)
}

func Test_List_Categories_Sorted_By_Name(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	for _, name := range []string{"music", "gaming", "art"} {
		_, err = repository.Create(name, "")
		req.NoError(err)
	}

	categories, err := repository.List()
	req.NoError(err)
	req.Len(categories, 3)
	req.Equal("art", categories[0].Name)
	req.Equal("gaming", categories[1].Name)
	req.Equal("music", categories[2].Name)
}

func Test_Rename_Category_Updates_The_Name_Index(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	created, err := repository.Create("gaming", "")
	req.NoError(err)

	renamed, err := repository.Rename(created.ID, "esports")
	req.NoError(err)
	req.Equal("esports", renamed.Name)

	// The old name is free again, the new one is taken.
	_, err = repository.Create("gaming", "")
	req.NoError(err)
	_, err = repository.Create("esports", "")
	req.ErrorIs(err, errors.ErrCategoryNameTaken)
}

func Test_Rename_Category_To_Its_Own_Name(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	created, err := repository.Create("gaming", "")
	req.NoError(err)

	renamed, err := repository.Rename(created.ID, "gaming")
	req.NoError(err)
	req.Equal("gaming", renamed.Name)
}

func Test_Delete_Category_Frees_Its_Name(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	created, err := repository.Create("gaming", "")
	req.NoError(err)

	req.NoError(repository.Delete(created.ID))

	_, err = repository.Get(created.ID)
	req.ErrorIs(err, errors.ErrCategoryNotFound)

	_, err = repository.Create("gaming", "")
	req.NoError(err)
}

func Test_Get_Unknown_Category(t *testing.T) {
	req := require.New(t)
	_, _, badgerDB, blugeWriter, err := database.SetupBenchmark(t.TempDir())
	req.NoError(err)
	defer database.CleanupDB(badgerDB, blugeWriter)

	repository := NewCategoryRepository(badgerDB)
	_, err = repository.Get(uuid.New())
	req.ErrorIs(err, errors.ErrCategoryNotFound)
}
