package infrastructure

import (
	"context"
	"strings"
	"testing"

	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/database"
	artdomain "artshop/internal/service/art/domain"
	artinfra "artshop/internal/service/art/infrastructure"
	"artshop/internal/service/order/domain"

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

func seedArt(t *testing.T, db *gorm.DB, title string, qty int) *artdomain.Art {
	a, err := artdomain.NewArt(title, "desc", decimal.RequireFromString("10.00"), qty, artdomain.CategoryPainting, "")
	require.NoError(t, err)
	require.NoError(t, artinfra.NewGormArtRepository(db).Create(context.Background(), a))
	return a
}

func newOrder(userID uint, arts ...*artdomain.Art) *domain.Order {
	items := make([]*domain.OrderItem, 0, len(arts))
	for _, a := range arts {
		items = append(items, &domain.OrderItem{ArtID: a.ID, Quantity: 1, Price: a.Price})
	}
	return domain.NewOrder(userID, "Ada", "555-0100", "1 Main St", items)
}

func TestCreateAndFindOrderWithRelations(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	a := seedArt(t, db, "A", 5)
	b := seedArt(t, db, "B", 5)

	o := newOrder(1, a, b)
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)
	for _, item := range o.Items {
		assert.NotZero(t, item.ID)
		assert.Equal(t, o.ID, item.OrderID)
	}

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.Len(t, got.Items, 2)
	require.NotNil(t, got.Items[0].Art)
	assert.Equal(t, "A", got.Items[0].Art.Title)
	assert.Equal(t, "B", got.Items[1].Art.Title)
	assert.True(t, got.Items[0].Price.Equal(decimal.NewFromInt(10)))

	got, err = repo.FindByIDForUser(ctx, o.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.UserID)

	_, err = repo.FindByIDForUser(ctx, o.ID, 2)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, "Order with ID 1 not found for this user", err.Error())

	_, err = repo.FindByID(ctx, 99)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, "Order with ID 99 not found", err.Error())
}

func TestFindByUserAndFindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	a := seedArt(t, db, "A", 5)

	require.NoError(t, repo.Create(ctx, newOrder(1, a)))
	require.NoError(t, repo.Create(ctx, newOrder(2, a)))
	require.NoError(t, repo.Create(ctx, newOrder(1, a)))

	mine, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Less(t, mine[0].ID, mine[1].ID)
	assert.NotNil(t, mine[0].Items[0].Art)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.FindByUser(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	a := seedArt(t, db, "A", 5)

	o := newOrder(1, a)
	require.NoError(t, repo.Create(ctx, o))

	o.Status = "shipped"
	o.Address = "2 Side St"
	o.Items[0].Quantity = 4
	o.Items[0].Price = decimal.RequireFromString("12.50")
	require.NoError(t, repo.Save(ctx, o))

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "shipped", got.Status)
	assert.Equal(t, "2 Side St", got.Address)
	assert.Equal(t, 4, got.Items[0].Quantity)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("12.5")))
}

func TestDeleteOrderCascadesItems(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()
	a := seedArt(t, db, "A", 5)

	o := newOrder(1, a)
	require.NoError(t, repo.Create(ctx, o))

	count, err := repo.CountLinesForArt(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, o.ID))

	count, err = repo.CountLinesForArt(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	var items int64
	require.NoError(t, db.Model(&OrderItemModel{}).Where("order_id = ?", o.ID).Count(&items).Error)
	assert.Zero(t, items)

	assert.ErrorIs(t, repo.Delete(ctx, o.ID), domain.ErrOrderNotFound)
}
