package cart

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Variant carries the optional product options picked by the shopper.
type Variant struct {
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Capacity string `json:"capacity,omitempty"`
}

// Line is one product entry in the cart.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Variant   *Variant        `json:"variant,omitempty"`
}

// Total returns unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered collection of lines keyed by product id.
// No two lines share a product id.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// FromLines rebuilds a cart from stored or fetched lines. Lines repeating a product
// id are merged into the first occurrence; lines without a product id are dropped.
func FromLines(lines []Line) *Cart {
	c := New()
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" {
			continue
		}
		if idx := c.indexOf(id); idx >= 0 {
			c.lines[idx].Quantity += line.Quantity
			continue
		}
		line.ProductID = id
		line.Variant = copyVariant(line.Variant)
		c.lines = append(c.lines, line)
	}
	return c
}

// AddLine increments the quantity of an existing line or appends a new one.
func (c *Cart) AddLine(productID, name string, unitPrice decimal.Decimal, quantity int, variant *Variant) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return invalidQuantity(productID, quantity)
	}
	if unitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative").
			WithDetails(map[string]any{"product_id": productID})
	}

	if idx := c.indexOf(productID); idx >= 0 {
		c.lines[idx].Quantity += quantity
		return nil
	}
	c.lines = append(c.lines, Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Variant:   copyVariant(variant),
	})
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity below one is
// stored as given; removing the line is left to RemoveLine.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart").
			WithDetails(map[string]any{"product_id": productID})
	}
	c.lines[idx].Quantity = quantity
	return nil
}

// RemoveLine drops the line and reports whether one was present.
func (c *Cart) RemoveLine(productID string) bool {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return false
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	return true
}

// Subtotal sums unit price times quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Total())
	}
	return total
}

// ItemCount sums the quantities of all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, line := range c.lines {
		line.Variant = copyVariant(line.Variant)
		out[i] = line
	}
	return out
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (Line, bool) {
	idx := c.indexOf(strings.TrimSpace(productID))
	if idx < 0 {
		return Line{}, false
	}
	line := c.lines[idx]
	line.Variant = copyVariant(line.Variant)
	return line, true
}

// ProductIDs returns the product ids in insertion order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.lines))
	for i, line := range c.lines {
		ids[i] = line.ProductID
	}
	return ids
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*c = *FromLines(lines)
	return nil
}

func (c *Cart) indexOf(productID string) int {
	for i, line := range c.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func invalidQuantity(productID string, quantity int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
		WithDetails(map[string]any{"product_id": productID, "quantity": quantity})
}

func copyVariant(v *Variant) *Variant {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
