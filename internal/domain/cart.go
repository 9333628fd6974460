package domain

// Quantity bounds for a cart line item.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// PlaceholderImage is shown for products that carry no image.
const PlaceholderImage = "/images/placeholder.png"

// LineItem is one row of a shopping cart. ID is the merge key; Size only
// distinguishes rows for display.
type LineItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
	Image string  `json:"image"`
	Size  string  `json:"size,omitempty"`
}

// DisplayKey identifies the row in a rendered list.
func (l LineItem) DisplayKey() string {
	if l.Size == "" {
		return l.ID
	}
	return l.ID + "::" + l.Size
}

// Visible reports whether the row is priced and therefore rendered and
// counted in totals.
func (l LineItem) Visible() bool {
	return l.Price > 0
}

// CartSnapshot is a point-in-time view of a session's cart.
type CartSnapshot struct {
	SessionID  string     `json:"sessionId"`
	Items      []LineItem `json:"items"`
	ItemCount  int        `json:"itemCount"`
	TotalPrice float64    `json:"totalPrice"`
}
