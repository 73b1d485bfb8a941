package wishlist

import (
	"encoding/json"
	"strings"
)

// Wishlist is an insertion ordered set of product ids.
type Wishlist struct {
	ids []string
}

func New() *Wishlist {
	return &Wishlist{}
}

// FromIDs rebuilds a wishlist, dropping blanks and duplicates.
func FromIDs(ids []string) *Wishlist {
	w := New()
	for _, id := range ids {
		w.Add(id)
	}
	return w
}

// Add appends productID and reports whether it was not already present.
func (w *Wishlist) Add(productID string) bool {
	productID = strings.TrimSpace(productID)
	if productID == "" || w.Contains(productID) {
		return false
	}
	w.ids = append(w.ids, productID)
	return true
}

// Remove drops productID and reports whether it was present.
func (w *Wishlist) Remove(productID string) bool {
	productID = strings.TrimSpace(productID)
	for i, id := range w.ids {
		if id == productID {
			w.ids = append(w.ids[:i], w.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Wishlist) Contains(productID string) bool {
	productID = strings.TrimSpace(productID)
	for _, id := range w.ids {
		if id == productID {
			return true
		}
	}
	return false
}

// List returns a copy of the ids in insertion order.
func (w *Wishlist) List() []string {
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

func (w *Wishlist) Len() int {
	return len(w.ids)
}

func (w *Wishlist) MarshalJSON() ([]byte, error) {
	ids := w.ids
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (w *Wishlist) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*w = *FromIDs(ids)
	return nil
}
