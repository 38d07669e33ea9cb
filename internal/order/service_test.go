package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func seedCheckout(t *testing.T, db *gorm.DB) (user models.User, addr models.Address, base models.Product, onSale models.Product) {
	t.Helper()

	user = models.User{Username: "buyer", PasswordHash: "x", Role: "user"}
	require.NoError(t, db.Create(&user).Error)

	addr = models.Address{UserID: user.ID, Line1: "1 Main St", City: "Springfield", Country: "US"}
	require.NoError(t, db.Create(&addr).Error)

	base = models.Product{
		CategoryID:    1,
		Name:          "Plain Widget",
		Slug:          "plain-widget",
		Price:         100,
		AdditionalTax: 10,
		Status:        models.ProductStatusActive,
	}
	require.NoError(t, db.Create(&base).Error)

	sale := 40.0
	onSale = models.Product{
		CategoryID: 1,
		Name:       "Discount Widget",
		Slug:       "discount-widget",
		Price:      50,
		SalePrice:  &sale,
		Status:     models.ProductStatusActive,
	}
	require.NoError(t, db.Create(&onSale).Error)

	return user, addr, base, onSale
}

func TestComputeLine(t *testing.T) {
	t.Run("no sale price falls back to base price", func(t *testing.T) {
		p := models.Product{Price: 100, AdditionalTax: 10}
		p.ID = 7

		line := ComputeLine(&p, 2)

		require.Equal(t, uint(7), line.ID)
		require.Equal(t, uint(2), line.Qty)
		require.InDelta(t, 200, line.TotalPrice, 1e-9)
		require.InDelta(t, 20, line.TotalPriceTax, 1e-9)
		require.InDelta(t, 100, line.SalePrice, 1e-9)
		require.InDelta(t, 200, line.TotalSalePrice, 1e-9)
		require.InDelta(t, 20, line.SalePriceTax, 1e-9)
	})

	t.Run("sale price", func(t *testing.T) {
		sale := 40.0
		p := models.Product{Price: 50, SalePrice: &sale}

		line := ComputeLine(&p, 1)

		require.InDelta(t, 50, line.TotalPrice, 1e-9)
		require.InDelta(t, 0, line.TotalPriceTax, 1e-9)
		require.InDelta(t, 40, line.SalePrice, 1e-9)
		require.InDelta(t, 40, line.TotalSalePrice, 1e-9)
		require.InDelta(t, 0, line.SalePriceTax, 1e-9)
	})
}

// The order amount intentionally sums both the base aggregate and the sale
// aggregate. 2x(100, 10% tax) + 1x(50, sale 40) must come out at exactly
// 250 + 20 + 240 + 20 = 530, not 260. This guards the billing formula
// against well-meaning cleanup.
func TestTotalizeDoubleCountsSaleAggregate(t *testing.T) {
	sale := 40.0
	a := models.Product{Price: 100, AdditionalTax: 10}
	b := models.Product{Price: 50, SalePrice: &sale}

	totals := Totalize([]LineResult{ComputeLine(&a, 2), ComputeLine(&b, 1)})

	require.InDelta(t, 250, totals.TotalPrice, 1e-9)
	require.InDelta(t, 20, totals.TotalTax, 1e-9)
	require.InDelta(t, 240, totals.SalePrice, 1e-9)
	require.InDelta(t, 20, totals.SaleTax, 1e-9)
	require.InDelta(t, 530, totals.OrderAmount, 1e-9)
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists order, items and aggregates", func(t *testing.T) {
		db := setupTestDB(t)
		user, addr, base, onSale := seedCheckout(t, db)
		svc := &Service{DB: db}

		result, err := svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{
			{ID: base.ID, Qty: 2},
			{ID: onSale.ID, Qty: 1},
		})
		require.NoError(t, err)
		require.Len(t, result.Products, 2)
		require.InDelta(t, 250, result.GrandTotalPrice, 1e-9)
		require.InDelta(t, 20, result.GrandTotalTax, 1e-9)
		require.InDelta(t, 240, result.GrandSalePrice, 1e-9)
		require.InDelta(t, 20, result.GrandSaleTax, 1e-9)
		require.InDelta(t, 530, result.OrderAmount, 1e-9)
		require.NotZero(t, result.OrderID)

		var ord models.Order
		require.NoError(t, db.First(&ord, result.OrderID).Error)
		require.Equal(t, user.ID, ord.UserID)
		require.Equal(t, addr.ID, ord.AddressID)
		require.Equal(t, models.OrderStatusCreated, ord.OrderStatus)
		require.InDelta(t, 530, ord.OrderAmount, 1e-9)

		var items []models.OrderItem
		require.NoError(t, db.Where("order_id = ?", ord.ID).Order("product_id ASC").Find(&items).Error)
		require.Len(t, items, 2)
		require.Equal(t, user.ID, items[0].UserID)
		require.Equal(t, uint(2), items[0].Qty)
		require.InDelta(t, 10, items[0].Tax, 1e-9)
		require.InDelta(t, 200, items[0].TotalPrice, 1e-9)
		require.Equal(t, models.DeliveryStatusPending, items[0].DeliveryStatus)
		require.InDelta(t, 40, items[1].SalePrice, 1e-9)
	})

	t.Run("repeat checkout inside the window returns the prior order", func(t *testing.T) {
		db := setupTestDB(t)
		user, addr, base, _ := seedCheckout(t, db)
		svc := &Service{DB: db}

		first, err := svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{{ID: base.ID, Qty: 1}})
		require.NoError(t, err)

		_, err = svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{{ID: base.ID, Qty: 3}})
		require.Error(t, err)
		require.ErrorIs(t, err, ErrConflict)

		var dup *DuplicateError
		require.ErrorAs(t, err, &dup)
		require.Equal(t, first.OrderID, dup.OrderID)

		var n int64
		require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
		require.EqualValues(t, 1, n)
	})

	t.Run("checkout outside the window creates a new order", func(t *testing.T) {
		db := setupTestDB(t)
		user, addr, base, _ := seedCheckout(t, db)
		svc := &Service{DB: db}

		first, err := svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{{ID: base.ID, Qty: 1}})
		require.NoError(t, err)

		stale := time.Now().Add(-DuplicateWindow - time.Minute)
		require.NoError(t, db.Model(&models.Order{}).
			Where("id = ?", first.OrderID).
			UpdateColumn("created_at", stale).Error)

		second, err := svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{{ID: base.ID, Qty: 1}})
		require.NoError(t, err)
		require.NotEqual(t, first.OrderID, second.OrderID)
	})

	t.Run("foreign address is forbidden and writes nothing", func(t *testing.T) {
		db := setupTestDB(t)
		user, _, base, _ := seedCheckout(t, db)
		svc := &Service{DB: db}

		other := models.User{Username: "other", PasswordHash: "x", Role: "user"}
		require.NoError(t, db.Create(&other).Error)
		foreign := models.Address{UserID: other.ID, Line1: "2 Elm St"}
		require.NoError(t, db.Create(&foreign).Error)

		_, err := svc.CreateOrder(ctx, user.ID, foreign.ID, []ItemRequest{{ID: base.ID, Qty: 1}})
		require.ErrorIs(t, err, ErrForbidden)

		var n int64
		require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
		require.Zero(t, n)
	})

	t.Run("validation failures", func(t *testing.T) {
		db := setupTestDB(t)
		user, addr, base, _ := seedCheckout(t, db)
		svc := &Service{DB: db}

		cases := []struct {
			name      string
			addressID uint
			items     []ItemRequest
		}{
			{"empty items", addr.ID, nil},
			{"missing address", 0, []ItemRequest{{ID: base.ID, Qty: 1}}},
			{"zero product id", addr.ID, []ItemRequest{{ID: 0, Qty: 1}}},
			{"zero qty", addr.ID, []ItemRequest{{ID: base.ID, Qty: 0}}},
		}
		for _, tc := range cases {
			_, err := svc.CreateOrder(ctx, user.ID, tc.addressID, tc.items)
			require.ErrorIs(t, err, ErrValidation, tc.name)
		}
	})

	t.Run("unknown product rolls the whole order back", func(t *testing.T) {
		db := setupTestDB(t)
		user, addr, base, _ := seedCheckout(t, db)
		svc := &Service{DB: db}

		_, err := svc.CreateOrder(ctx, user.ID, addr.ID, []ItemRequest{
			{ID: base.ID, Qty: 1},
			{ID: 9999, Qty: 1},
		})
		require.ErrorIs(t, err, ErrValidation)
		require.False(t, errors.Is(err, ErrConflict))

		var orders, items int64
		require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
		require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
		require.Zero(t, orders)
		require.Zero(t, items)
	})
}
