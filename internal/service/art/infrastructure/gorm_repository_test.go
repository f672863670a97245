package infrastructure

import (
	"context"
	"strings"
	"testing"

	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/database"
	"artshop/internal/service/art/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(bootstrap.DatabaseConfig{
		Driver:       "sqlite",
		Path:         "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newArt(t *testing.T, qty int) *domain.Art {
	a, err := domain.NewArt("Water Lilies", "oil on canvas", decimal.RequireFromString("10.00"), qty, domain.CategoryPainting, "/uploads/a.jpg")
	require.NoError(t, err)
	return a
}

func TestCreateAndFindArt(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()

	a := newArt(t, 5)
	require.NoError(t, repo.Create(ctx, a))
	assert.NotZero(t, a.ID)

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water Lilies", got.Title)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 5, got.Quantity)
	assert.True(t, got.InStock)
	assert.Equal(t, domain.CategoryPainting, got.Category)

	_, err = repo.FindByID(ctx, a.ID+100)
	assert.ErrorIs(t, err, domain.ErrArtNotFound)
}

func TestCreateOutOfStockArtKeepsFlag(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()

	a := newArt(t, 0)
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock)
}

func TestFindAllOrdersByID(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newArt(t, i)))
	}

	arts, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, arts, 3)
	assert.Less(t, arts[0].ID, arts[1].ID)
	assert.Less(t, arts[1].ID, arts[2].ID)
}

func TestSaveAndDeleteArt(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()

	a := newArt(t, 2)
	require.NoError(t, repo.Create(ctx, a))

	a.Title = "Water Lilies II"
	a.Price = decimal.RequireFromString("12.50")
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water Lilies II", got.Title)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.50")))

	missing := newArt(t, 1)
	missing.ID = a.ID + 100
	assert.ErrorIs(t, repo.Save(ctx, missing), domain.ErrArtNotFound)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), domain.ErrArtNotFound)
}

func TestSaveLeavesStockColumnsAlone(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()

	a := newArt(t, 5)
	require.NoError(t, repo.Create(ctx, a))

	// 另一个进程在读取之后扣减了库存
	_, err := repo.AdjustStock(ctx, a.ID, 3)
	require.NoError(t, err)

	a.Description = "restored frame"
	require.NoError(t, repo.Save(ctx, a))

	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "restored frame", got.Description)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.InStock)
}

func TestSetQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormArtRepository(db)
	tm := database.NewTxManager(db)
	ctx := context.Background()

	a := newArt(t, 2)
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.SetQuantity(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.InStock)

	err = tm.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := repo.FindByIDForUpdate(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, locked.Quantity)
		_, err = repo.SetQuantity(ctx, a.ID, 7)
		return err
	})
	require.NoError(t, err)

	got, err = repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)
	assert.True(t, got.InStock)

	_, err = repo.SetQuantity(ctx, a.ID+100, 1)
	assert.ErrorIs(t, err, domain.ErrArtNotFound)
	_, err = repo.FindByIDForUpdate(ctx, a.ID+100)
	assert.ErrorIs(t, err, domain.ErrArtNotFound)
}

func TestAdjustStock(t *testing.T) {
	repo := NewGormArtRepository(setupTestDB(t))
	ctx := context.Background()

	a := newArt(t, 5)
	require.NoError(t, repo.Create(ctx, a))

	got, err := repo.AdjustStock(ctx, a.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, got.InStock)

	_, err = repo.AdjustStock(ctx, a.ID, 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	unchanged, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unchanged.Quantity)

	got, err = repo.AdjustStock(ctx, a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.InStock)

	// 负的 delta 表示归还库存
	got, err = repo.AdjustStock(ctx, a.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)
	assert.True(t, got.InStock)

	_, err = repo.AdjustStock(ctx, a.ID+100, 1)
	assert.ErrorIs(t, err, domain.ErrArtNotFound)
}
