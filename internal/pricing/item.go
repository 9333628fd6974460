package pricing

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/utafrali/electroshop/internal/domain"
)

var (
	idKeys    = []string{"id", "_id", "productId", "product_id"}
	offerKeys = []string{"offerPrice", "offer_price"}
	qtyKeys   = []string{"qty", "quantity"}
	imageKeys = []string{"image", "imageUrl", "image_url"}
)

// Item maps a product-like record onto a LineItem. It reports false when no
// usable id can be found; every other field falls back to a safe default.
// Stored prices are never negative.
func (n *Normalizer) Item(raw map[string]any) (domain.LineItem, bool) {
	item := domain.LineItem{
		ID:    firstString(raw, idKeys...),
		Name:  firstString(raw, "name", "title"),
		Qty:   domain.MinQuantity,
		Image: firstString(raw, imageKeys...),
		Size:  firstString(raw, "size"),
	}
	if item.ID == "" {
		return domain.LineItem{}, false
	}

	item.Price = max(n.itemPrice(raw), 0)

	for _, k := range qtyKeys {
		if v, ok := raw[k]; ok && v != nil {
			item.Qty = n.Quantity(v)
			break
		}
	}

	if item.Image == "" {
		if imgs, ok := raw["images"].([]any); ok {
			for _, img := range imgs {
				if s := stringValue(img); s != "" {
					item.Image = s
					break
				}
			}
		}
	}
	if item.Image == "" {
		item.Image = domain.PlaceholderImage
	}

	return item, true
}

func (n *Normalizer) itemPrice(raw map[string]any) float64 {
	for _, k := range offerKeys {
		if v, ok := raw[k]; ok && v != nil {
			if offer := n.Price(v); offer > 0 {
				return offer
			}
			break
		}
	}
	return n.Price(raw["price"])
}

// Sanitize re-applies the line item invariants to rows read back from
// storage: negative prices become 0, quantities are clamped, images are
// defaulted, and rows without an id or repeating an earlier id are dropped.
func (n *Normalizer) Sanitize(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for _, it := range items {
		if it.ID == "" {
			n.logger.Warn("dropping cart row without id")
			continue
		}
		if _, dup := seen[it.ID]; dup {
			n.logger.Warn("dropping duplicate cart row", slog.String("id", it.ID))
			continue
		}
		seen[it.ID] = struct{}{}

		it.Price = max(n.Price(it.Price), 0)
		it.Qty = ClampQuantity(it.Qty)
		if it.Image == "" {
			it.Image = domain.PlaceholderImage
		}
		out = append(out, it)
	}
	return out
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(raw[k]); s != "" {
			return s
		}
	}
	return ""
}

// stringValue renders ids and labels. Numbers are formatted without an
// exponent and Mongo-style {"$oid": "..."} objects are unwrapped.
func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case map[string]any:
		return stringValue(x["$oid"])
	default:
		return ""
	}
}
