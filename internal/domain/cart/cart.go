// Package cart holds the session-scoped shopping cart and the search-box
// command grammar that feeds it.
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is a single consolidated cart entry. Two additions merge into one
// line when both name and category match.
type Line struct {
	ID       string
	Name     string
	Category string
	Quantity decimal.Decimal
}

type lineKey struct {
	name     string
	category string
}

// Cart consolidates selected items for one session. It is not safe for
// concurrent use; each session owns exactly one cart.
type Cart struct {
	lines []Line
	index map[lineKey]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[lineKey]int)}
}

// Add merges the candidate into the cart. An existing line with the same
// (name, category) key absorbs the quantity; otherwise a new line with a
// fresh id is appended. A non-positive quantity leaves the cart untouched
// and returns a zero Line.
func (c *Cart) Add(name, category string, quantity decimal.Decimal) Line {
	if quantity.Sign() <= 0 {
		return Line{}
	}
	key := lineKey{name: name, category: category}
	if i, ok := c.index[key]; ok {
		c.lines[i].Quantity = c.lines[i].Quantity.Add(quantity)
		return c.lines[i]
	}

	line := Line{
		ID:       uuid.New().String(),
		Name:     name,
		Category: category,
		Quantity: quantity,
	}
	c.lines = append(c.lines, line)
	c.index[key] = len(c.lines) - 1
	return line
}

// Remove deletes the line with the given id. Removing an absent id is a
// no-op.
func (c *Cart) Remove(lineID string) {
	for i, line := range c.lines {
		if line.ID != lineID {
			continue
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		c.reindex()
		return
	}
}

// SetQuantity overwrites the quantity of the line with the given id.
// A quantity of zero or less removes the line instead.
func (c *Cart) SetQuantity(lineID string, quantity decimal.Decimal) {
	if quantity.Sign() <= 0 {
		c.Remove(lineID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[lineKey]int)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// TotalQuantity returns the sum of all line quantities.
func (c *Cart) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Quantity)
	}
	return total
}

// Lines returns the cart contents in insertion order. The returned slice is
// a copy; mutating it does not affect the cart.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Restore replaces the cart contents with previously saved lines, merging
// any duplicate keys and dropping non-positive quantities.
func (c *Cart) Restore(lines []Line) {
	c.Clear()
	for _, line := range lines {
		if line.Quantity.Sign() <= 0 {
			continue
		}
		c.Add(line.Name, line.Category, line.Quantity)
	}
}

func (c *Cart) reindex() {
	c.index = make(map[lineKey]int, len(c.lines))
	for i, line := range c.lines {
		c.index[lineKey{name: line.Name, category: line.Category}] = i
	}
}
