package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/internal/coupon"
	"github.com/angelmondragon/homeplast-storefront/internal/orders"
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// flexID accepts ids encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// ref is a reference to a category or brand, sent either as a bare id or slug or
// as an embedded object.
type ref struct {
	ID   flexID `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		type plain ref
		var p plain
		if err := json.Unmarshal(b, &p); err != nil {
			return err
		}
		*r = ref(p)
		return nil
	}
	var id flexID
	if err := id.UnmarshalJSON(b); err != nil {
		return err
	}
	*r = ref{ID: id}
	return nil
}

// key prefers the slug, which is what shoppers filter by.
func (r ref) key() string {
	if r.Slug != "" {
		return r.Slug
	}
	return string(r.ID)
}

type productDTO struct {
	ID          flexID           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Price       *decimal.Decimal `json:"price"`
	Images      []string         `json:"images"`
	Category    ref              `json:"category"`
	Brand       ref              `json:"brand"`
	Status      string           `json:"status"`
	Sizes       []string         `json:"sizes"`
	Colors      []string         `json:"colors"`
	Capacity    *decimal.Decimal `json:"capacity"`
	ReviewCount int              `json:"review_count"`
	IsNew       bool             `json:"is_new"`
}

func (p productDTO) toDomain() (catalog.Product, error) {
	var errs error
	if p.ID == "" {
		errs = multierr.Append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	if p.Price == nil || p.Price.IsNegative() {
		errs = multierr.Append(errs, errors.New("price must be a non-negative number"))
	}
	if p.Capacity != nil && p.Capacity.IsNegative() {
		errs = multierr.Append(errs, errors.New("capacity must be non-negative"))
	}
	if p.ReviewCount < 0 {
		errs = multierr.Append(errs, errors.New("review_count must be non-negative"))
	}
	status, err := parseListingStatus(p.Status)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return catalog.Product{}, errs
	}
	return catalog.Product{
		ID:          string(p.ID),
		Name:        p.Name,
		Slug:        p.Slug,
		Price:       *p.Price,
		Images:      p.Images,
		Category:    p.Category.key(),
		Brand:       p.Brand.key(),
		Status:      status,
		Sizes:       p.Sizes,
		Colors:      p.Colors,
		Capacity:    p.Capacity,
		ReviewCount: p.ReviewCount,
		IsNew:       p.IsNew,
	}, nil
}

type taxonomyDTO struct {
	ID     flexID `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
}

func (t taxonomyDTO) validate() (enums.ProductStatus, error) {
	var errs error
	if t.ID == "" {
		errs = multierr.Append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(t.Name) == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	status, err := parseListingStatus(t.Status)
	return status, multierr.Append(errs, err)
}

func (t taxonomyDTO) toCategory() (catalog.Category, error) {
	status, err := t.validate()
	if err != nil {
		return catalog.Category{}, err
	}
	return catalog.Category{ID: string(t.ID), Name: t.Name, Slug: t.Slug, Status: status}, nil
}

func (t taxonomyDTO) toBrand() (catalog.Brand, error) {
	status, err := t.validate()
	if err != nil {
		return catalog.Brand{}, err
	}
	return catalog.Brand{ID: string(t.ID), Name: t.Name, Slug: t.Slug, Status: status}, nil
}

// parseListingStatus treats a missing status as active; the back end only lists
// sellable items unless it says otherwise.
func parseListingStatus(raw string) (enums.ProductStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return enums.ProductStatusActive, nil
	}
	return enums.ParseProductStatus(strings.ToLower(strings.TrimSpace(raw)))
}

type cartItemDTO struct {
	ProductID flexID           `json:"product_id"`
	Name      string           `json:"name"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  int              `json:"quantity"`
	Variant   *cart.Variant    `json:"variant"`
}

func (c cartItemDTO) toDomain() (cart.Line, error) {
	price := c.UnitPrice
	if price == nil {
		price = c.Price
	}
	var errs error
	if c.ProductID == "" {
		errs = multierr.Append(errs, errors.New("product_id is required"))
	}
	if price == nil || price.IsNegative() {
		errs = multierr.Append(errs, errors.New("unit_price must be a non-negative number"))
	}
	if c.Quantity < 1 {
		errs = multierr.Append(errs, errors.New("quantity must be at least 1"))
	}
	if errs != nil {
		return cart.Line{}, errs
	}
	return cart.Line{
		ProductID: string(c.ProductID),
		Name:      c.Name,
		UnitPrice: *price,
		Quantity:  c.Quantity,
		Variant:   c.Variant,
	}, nil
}

type couponDTO struct {
	Code            string           `json:"code"`
	Type            string           `json:"type"`
	Value           *decimal.Decimal `json:"value"`
	MinimumAmount   *decimal.Decimal `json:"minimum_amount"`
	MaximumDiscount *decimal.Decimal `json:"maximum_discount"`
	UsageLimit      *int             `json:"usage_limit"`
	UsedCount       int              `json:"used_count"`
	PerUserLimit    *int             `json:"per_user_limit"`
	Applicability   string           `json:"applicability"`
	ApplicableIDs   []flexID         `json:"applicable_ids"`
	StartDate       *time.Time       `json:"start_date"`
	EndDate         *time.Time       `json:"end_date"`
	Status          string           `json:"status"`
}

func (c couponDTO) toDomain() (coupon.Coupon, error) {
	var errs error
	if strings.TrimSpace(c.Code) == "" {
		errs = multierr.Append(errs, errors.New("code is required"))
	}
	couponType, err := enums.ParseCouponType(c.Type)
	errs = multierr.Append(errs, err)
	status, err := enums.ParseCouponStatus(c.Status)
	errs = multierr.Append(errs, err)
	applicability := enums.CouponApplicabilityAll
	if c.Applicability != "" {
		applicability, err = enums.ParseCouponApplicability(c.Applicability)
		errs = multierr.Append(errs, err)
	}
	if c.Value == nil || c.Value.IsNegative() {
		errs = multierr.Append(errs, errors.New("value must be a non-negative number"))
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		errs = multierr.Append(errs, errors.New("end_date precedes start_date"))
	}
	if errs != nil {
		return coupon.Coupon{}, errs
	}

	out := coupon.Coupon{
		Code:            c.Code,
		Type:            couponType,
		Value:           *c.Value,
		MinimumAmount:   decimal.Zero,
		MaximumDiscount: c.MaximumDiscount,
		UsageLimit:      c.UsageLimit,
		UsedCount:       c.UsedCount,
		PerUserLimit:    c.PerUserLimit,
		Applicability:   applicability,
		Status:          status,
	}
	if c.MinimumAmount != nil {
		out.MinimumAmount = *c.MinimumAmount
	}
	for _, id := range c.ApplicableIDs {
		out.ApplicableIDs = append(out.ApplicableIDs, string(id))
	}
	if c.StartDate != nil {
		out.StartDate = *c.StartDate
	}
	if c.EndDate != nil {
		out.EndDate = *c.EndDate
	}
	return out, nil
}

type couponValidationDTO struct {
	Code           string           `json:"code"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Type           string           `json:"type"`
	Message        string           `json:"message"`
}

func (v couponValidationDTO) toDomain() (coupon.Validation, error) {
	if v.DiscountAmount == nil || v.DiscountAmount.IsNegative() {
		return coupon.Validation{}, errors.New("discount_amount must be a non-negative number")
	}
	out := coupon.Validation{
		Code:           v.Code,
		DiscountAmount: *v.DiscountAmount,
		Message:        v.Message,
	}
	if v.Type != "" {
		couponType, err := enums.ParseCouponType(v.Type)
		if err != nil {
			return coupon.Validation{}, err
		}
		out.Type = couponType
	}
	return out, nil
}

type orderDTO struct {
	ID        flexID           `json:"id"`
	Status    string           `json:"status"`
	Total     *decimal.Decimal `json:"total"`
	CreatedAt time.Time        `json:"created_at"`
	Items     []cartItemDTO    `json:"items"`
}

func (o orderDTO) toDomain() (orders.Order, error) {
	var errs error
	if o.ID == "" {
		errs = multierr.Append(errs, errors.New("id is required"))
	}
	status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(o.Status)))
	errs = multierr.Append(errs, err)
	if o.Total == nil {
		errs = multierr.Append(errs, errors.New("total is required"))
	}
	items := make([]cart.Line, 0, len(o.Items))
	for i, item := range o.Items {
		line, err := item.toDomain()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		items = append(items, line)
	}
	if errs != nil {
		return orders.Order{}, errs
	}
	return orders.Order{
		ID:        string(o.ID),
		Status:    status,
		Total:     *o.Total,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}, nil
}

// convertAll validates every item and fails the whole response on the first bad one.
func convertAll[D any, T any](endpoint string, items []D, convert func(D) (T, error)) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, item := range items {
		value, err := convert(item)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, fmt.Sprintf("%s: invalid item %d", endpoint, i)).
				WithDetails(map[string]any{"index": i})
		}
		out = append(out, value)
	}
	return out, nil
}

func malformed(endpoint string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, fmt.Sprintf("%s: invalid payload", endpoint))
}

// number renders a decimal as a bare JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
