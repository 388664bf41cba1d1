// Package cart implements the two cart merge policies used during checkout
// and the diff reported back after a cart edit.
//
// Add sums quantities for a product already in the cart (cart building),
// while Set replaces the stored quantity (cart editing). Both keep product
// ids unique and preserve the order in which products were first added.
package cart

// Line is one product and its quantity in a cart.
type Line struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Add merges qty into the line for productID, appending a new line when the
// product is not in the cart yet. The input slice is not modified.
func Add(lines []Line, productID int64, qty int) []Line {
	out := clone(lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity += qty
			return out
		}
	}
	return append(out, Line{ProductID: productID, Quantity: qty})
}

// Set replaces the quantity for productID, appending a new line when the
// product is not in the cart yet. The input slice is not modified.
func Set(lines []Line, productID int64, qty int) []Line {
	out := clone(lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = qty
			return out
		}
	}
	return append(out, Line{ProductID: productID, Quantity: qty})
}

// Remove drops every line whose product id is in ids and reports how many
// lines were removed.
func Remove(lines []Line, ids ...int64) ([]Line, int) {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if !drop[l.ProductID] {
			out = append(out, l)
		}
	}
	return out, len(lines) - len(out)
}

// Quantity returns the quantity stored for productID, or 0.
func Quantity(lines []Line, productID int64) int {
	for _, l := range lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// TotalQuantity sums the quantities of all lines.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// Change describes a quantity change for one product.
type Change struct {
	ProductID   int64
	OldQuantity int
	NewQuantity int
}

// Diff describes how a cart changed between two snapshots.
type Diff struct {
	Added   []Line
	Updated []Change
	Removed []Line
}

// IsEmpty returns true if the snapshots hold the same lines.
func (d *Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Compare computes the difference between before and after, matching lines
// by product id. Added and Updated follow the order of after; Removed follows
// the order of before.
func Compare(before, after []Line) *Diff {
	diff := &Diff{}

	beforeByID := make(map[int64]Line, len(before))
	for _, l := range before {
		beforeByID[l.ProductID] = l
	}
	afterByID := make(map[int64]Line, len(after))
	for _, l := range after {
		afterByID[l.ProductID] = l
	}

	for _, l := range after {
		prev, exists := beforeByID[l.ProductID]
		switch {
		case !exists:
			diff.Added = append(diff.Added, l)
		case prev.Quantity != l.Quantity:
			diff.Updated = append(diff.Updated, Change{
				ProductID:   l.ProductID,
				OldQuantity: prev.Quantity,
				NewQuantity: l.Quantity,
			})
		}
	}

	for _, l := range before {
		if _, exists := afterByID[l.ProductID]; !exists {
			diff.Removed = append(diff.Removed, l)
		}
	}

	return diff
}

func clone(lines []Line) []Line {
	out := make([]Line, len(lines), len(lines)+1)
	copy(out, lines)
	return out
}
