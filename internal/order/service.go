// Package order converts a product selection plus a shipping address into a
// persisted order with computed price and tax aggregates.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// DuplicateWindow is the interval during which a repeat checkout for the
// same (user, address) pair is suppressed.
const DuplicateWindow = 15 * time.Minute

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrForbidden  = errors.New("forbidden")  // 403
	ErrConflict   = errors.New("conflict")   // 409
)

// DuplicateError reports a checkout suppressed by the duplicate window,
// carrying the prior order's id for the 409 body.
type DuplicateError struct {
	OrderID uint
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("order %d already exists within the last %v", e.OrderID, DuplicateWindow)
}

func (e *DuplicateError) Unwrap() error { return ErrConflict }

// ItemRequest is one (product, quantity) selection in a checkout.
type ItemRequest struct {
	ID  uint `json:"id"`
	Qty uint `json:"qty"`
}

// LineResult is the per-product breakdown returned to the client and used
// to fold the order aggregates.
type LineResult struct {
	ID             uint    `json:"id"`
	Qty            uint    `json:"qty"`
	Price          float64 `json:"price"`
	SalePrice      float64 `json:"sale_price"`
	TaxPercent     float64 `json:"tax_per"`
	TotalPrice     float64 `json:"total_price"`
	TotalPriceTax  float64 `json:"total_price_tax"`
	TotalSalePrice float64 `json:"total_sale_price"`
	SalePriceTax   float64 `json:"sale_price_tax"`
}

// Totals are the order-level aggregates.
type Totals struct {
	TotalPrice  float64
	TotalTax    float64
	SalePrice   float64
	SaleTax     float64
	OrderAmount float64
}

// Result is the checkout response payload.
type Result struct {
	Products        []LineResult `json:"products"`
	GrandTotalPrice float64      `json:"grand_total_price"`
	GrandTotalTax   float64      `json:"grand_total_tax"`
	GrandSalePrice  float64      `json:"grand_sale_price"`
	GrandSaleTax    float64      `json:"grand_sale_tax"`
	OrderAmount     float64      `json:"order_amount"`
	OrderID         uint         `json:"order_id"`
}

// ComputeLine prices one selection: base line total and tax, plus the sale
// line using the effective sale price (sale price if set, else base price).
func ComputeLine(p *models.Product, qty uint) LineResult {
	totalPrice := p.Price * float64(qty)
	totalPriceTax := totalPrice * (p.AdditionalTax / 100)

	effectiveSale := p.Price
	if p.SalePrice != nil {
		effectiveSale = *p.SalePrice
	}
	totalSalePrice := effectiveSale * float64(qty)
	salePriceTax := totalSalePrice * (p.AdditionalTax / 100)

	return LineResult{
		ID:             p.ID,
		Qty:            qty,
		Price:          p.Price,
		SalePrice:      effectiveSale,
		TaxPercent:     p.AdditionalTax,
		TotalPrice:     totalPrice,
		TotalPriceTax:  totalPriceTax,
		TotalSalePrice: totalSalePrice,
		SalePriceTax:   salePriceTax,
	}
}

// Totalize folds line results into the order aggregates. OrderAmount sums
// base price+tax AND sale price+tax, which double-bills whenever a sale
// price coexists with the base aggregate. That matches the upstream system
// this service replaces; it is pinned by tests and must not be "fixed"
// without a product decision.
func Totalize(lines []LineResult) Totals {
	var t Totals
	for _, l := range lines {
		t.TotalPrice += l.TotalPrice
		t.TotalTax += l.TotalPriceTax
		t.SalePrice += l.TotalSalePrice
		t.SaleTax += l.SalePriceTax
	}
	t.OrderAmount = t.TotalPrice + t.TotalTax + t.SalePrice + t.SaleTax
	return t
}

type Service struct {
	DB *gorm.DB
}

// CreateOrder runs the whole checkout in one transaction: address ownership
// check, duplicate-window guard, order shell, per-item ledger entries and
// the final aggregate update. Any failure rolls the whole order back.
func (s *Service) CreateOrder(ctx context.Context, userID, addressID uint, items []ItemRequest) (*Result, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: products required", ErrValidation)
	}
	if addressID == 0 {
		return nil, fmt.Errorf("%w: address_id required", ErrValidation)
	}
	for _, it := range items {
		if it.ID == 0 {
			return nil, fmt.Errorf("%w: product id required", ErrValidation)
		}
		if it.Qty < 1 {
			return nil, fmt.Errorf("%w: qty must be >= 1", ErrValidation)
		}
	}

	var result *Result

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var addr models.Address
		if err := tx.Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: address does not belong to the authenticated user", ErrForbidden)
			}
			return err
		}

		// Touching the address row takes a write lock on it, serializing
		// concurrent checkouts for the same address so the duplicate check
		// below cannot race another insert.
		if err := tx.Model(&models.Address{}).
			Where("id = ?", addressID).
			UpdateColumn("updated_at", time.Now()).Error; err != nil {
			return err
		}

		cutoff := time.Now().Add(-DuplicateWindow)
		var prior models.Order
		err := tx.
			Where("user_id = ? AND address_id = ? AND created_at >= ?", userID, addressID, cutoff).
			First(&prior).Error
		if err == nil {
			return &DuplicateError{OrderID: prior.ID}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Resolve all products up front so a bad id fails before the shell
		// exists.
		products := make([]models.Product, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d does not exist", ErrValidation, it.ID)
				}
				return err
			}
			products = append(products, p)
		}

		// Shell first: line rows need the order id.
		ord := models.Order{
			UserID:      userID,
			AddressID:   addressID,
			OrderStatus: models.OrderStatusCreated,
		}
		if err := tx.Create(&ord).Error; err != nil {
			return err
		}

		lines := make([]LineResult, 0, len(items))
		for i, it := range items {
			line := ComputeLine(&products[i], it.Qty)
			lines = append(lines, line)

			oi := models.OrderItem{
				OrderID:        ord.ID,
				UserID:         userID,
				ProductID:      products[i].ID,
				Qty:            it.Qty,
				Tax:            products[i].AdditionalTax,
				TotalPrice:     line.TotalPrice,
				SalePrice:      line.SalePrice,
				DeliveryStatus: models.DeliveryStatusPending,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
		}

		t := Totalize(lines)
		if err := tx.Model(&models.Order{}).Where("id = ?", ord.ID).Updates(map[string]interface{}{
			"total_price":  t.TotalPrice,
			"total_tax":    t.TotalTax,
			"sale_price":   t.SalePrice,
			"sale_tax":     t.SaleTax,
			"order_amount": t.OrderAmount,
		}).Error; err != nil {
			return err
		}

		result = &Result{
			Products:        lines,
			GrandTotalPrice: t.TotalPrice,
			GrandTotalTax:   t.TotalTax,
			GrandSalePrice:  t.SalePrice,
			GrandSaleTax:    t.SaleTax,
			OrderAmount:     t.OrderAmount,
			OrderID:         ord.ID,
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return result, nil
}
