package storage

import (
	"context"
	"math"
	"testing"

	"expenses/internal/core"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RepositoryTestSuite runs every test against a fresh memory database.
type RepositoryTestSuite struct {
	suite.Suite
	repo *SQLiteRepository
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := NewSQLiteRepository("test_" + uuid.NewString())
	require.NoError(s.T(), err, "failed to create test database")
	s.repo = repo
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) TestAppendKeepsInsertionOrder() {
	ctx := context.Background()
	for i, e := range []core.Expense{
		{ID: 30, Name: "Taxi", Amount: 200, Category: core.Car},
		{ID: 10, Name: "Movie", Amount: 300, Category: core.Entertainment},
		{ID: 20, Name: "Coffee", Amount: 4.5, Category: core.Food},
	} {
		ref, err := s.repo.Append(ctx, e)
		require.NoError(s.T(), err)
		assert.NotEmpty(s.T(), ref, "append %d", i)
	}

	items, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 3)
	assert.Equal(s.T(), []int64{30, 10, 20}, []int64{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(s.T(), core.Food, items[2].Category)
	assert.Equal(s.T(), 4.5, items[2].Amount)
}

func (s *RepositoryTestSuite) TestNaNRoundTrip() {
	ctx := context.Background()
	_, err := s.repo.Append(ctx, core.Expense{ID: 1, Name: "odd", Amount: math.NaN(), Category: core.Food})
	require.NoError(s.T(), err)

	items, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.True(s.T(), math.IsNaN(items[0].Amount))
}

func (s *RepositoryTestSuite) TestUnknownCategoryPreserved() {
	ctx := context.Background()
	_, err := s.repo.Append(ctx, core.Expense{ID: 1, Name: "rent", Amount: 10, Category: core.Category("Rent")})
	require.NoError(s.T(), err)

	items, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.Category("Rent"), items[0].Category)
}

func (s *RepositoryTestSuite) TestDelete() {
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		_, err := s.repo.Append(ctx, core.Expense{ID: id, Name: "x", Amount: 1, Category: core.Car})
		require.NoError(s.T(), err)
	}

	removed, err := s.repo.Delete(ctx, 2)
	require.NoError(s.T(), err)
	assert.True(s.T(), removed)

	removed, err = s.repo.Delete(ctx, 99)
	require.NoError(s.T(), err)
	assert.False(s.T(), removed)

	items, err := s.repo.List(ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 2)
	assert.Equal(s.T(), int64(1), items[0].ID)
	assert.Equal(s.T(), int64(3), items[1].ID)
}

func (s *RepositoryTestSuite) TestEmptyList() {
	items, err := s.repo.List(context.Background())
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestSeparateNamesAreIsolated(t *testing.T) {
	a, err := NewSQLiteRepository("iso_" + uuid.NewString())
	require.NoError(t, err)
	defer a.Close()
	b, err := NewSQLiteRepository("iso_" + uuid.NewString())
	require.NoError(t, err)
	defer b.Close()

	_, err = a.Append(context.Background(), core.Expense{ID: 1, Name: "a", Amount: 1, Category: core.Food})
	require.NoError(t, err)

	items, err := b.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
