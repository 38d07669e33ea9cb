package cart

import "fmt"

// ShippingCost is the flat shipping policy, charged only on non-empty carts.
const ShippingCost = 10.0

// View is the API shape of a cart. Money is formatted to 2 decimals here,
// at the boundary only.
type View struct {
	Cart         []Line `json:"cart"`
	TotalAmount  string `json:"total_amount"`
	ShippingCost string `json:"shipping_cost"`
	GrandTotal   string `json:"grand_total"`
}

// BuildView folds the lines into totals. The shipping policy is always
// reported, but only charged into the grand total when the cart has items.
// Pure, so it tests without a store.
func BuildView(lines []Line) View {
	var total float64
	for _, l := range lines {
		total += l.Total
	}

	grand := total
	if total > 0 {
		grand += ShippingCost
	}

	if lines == nil {
		lines = []Line{}
	}
	return View{
		Cart:         lines,
		TotalAmount:  money(total),
		ShippingCost: money(ShippingCost),
		GrandTotal:   money(grand),
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
