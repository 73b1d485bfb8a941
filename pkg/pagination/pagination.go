package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 24
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the page returned to the caller.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns params with a 1-based page and a bounded limit.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: NormalizeLimit(p.Limit)}
}

// Window returns the half-open [start, end) slice bounds of the page over total
// items, clamped to the collection.
func (p Params) Window(total int) (int, int) {
	n := p.Normalize()
	start := (n.Page - 1) * n.Limit
	if start > total {
		start = total
	}
	end := start + n.Limit
	if end > total {
		end = total
	}
	return start, end
}

// MetaFor builds the response metadata for total items.
func (p Params) MetaFor(total int) Meta {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = (total + n.Limit - 1) / n.Limit
	}
	return Meta{
		Page:       n.Page,
		Limit:      n.Limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    n.Page < pages,
	}
}

// Slice returns the page of items selected by params.
func Slice[T any](items []T, p Params) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}
