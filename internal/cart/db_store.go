package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

// DBStore is the cart of an authenticated user: one row per
// (user, product), quantity accumulated in place.
type DBStore struct {
	DB      *gorm.DB
	UserID  uint
	BaseURL string
}

func (s *DBStore) Add(ctx context.Context, productID, qty uint) (int, error) {
	db := s.DB.WithContext(ctx)

	// Atomic increment first so two racing adds never lose an update.
	res := db.Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", s.UserID, productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		err := db.Create(&models.CartItem{
			UserID:    s.UserID,
			ProductID: productID,
			Quantity:  qty,
		}).Error
		if err != nil {
			// A racing first add can win the unique index between the
			// increment and the insert; fold into its row instead.
			retry := db.Model(&models.CartItem{}).
				Where("user_id = ? AND product_id = ?", s.UserID, productID).
				UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))
			if retry.Error != nil || retry.RowsAffected == 0 {
				return 0, err
			}
		}
	}
	return s.count(ctx)
}

func (s *DBStore) Remove(ctx context.Context, productID, qty uint) (int, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", s.UserID, productID).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Removing an absent item is a no-op, not an error.
			return nil
		}
		return tx.
			Where("user_id = ? AND product_id = ? AND quantity <= 0", s.UserID, productID).
			Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return 0, err
	}
	return s.count(ctx)
}

func (s *DBStore) Lines(ctx context.Context) ([]Line, error) {
	var items []models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", s.UserID).
		Order("product_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []models.Product
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			// Product deleted since it was carted; skip the stale row.
			continue
		}
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Image:     util.ImageURL(s.BaseURL, ProductImageDir, util.FirstImage(p.Images)),
			Total:     p.Price * float64(it.Quantity),
		})
	}
	return lines, nil
}

func (s *DBStore) Clear(ctx context.Context) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ?", s.UserID).
		Delete(&models.CartItem{}).Error
}

func (s *DBStore) count(ctx context.Context) (int, error) {
	var n int64
	err := s.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ?", s.UserID).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
