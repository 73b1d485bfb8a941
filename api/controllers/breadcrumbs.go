package controllers

import (
	"net/http"

	"github.com/angelmondragon/homeplast-storefront/api/responses"
	"github.com/angelmondragon/homeplast-storefront/internal/breadcrumbs"
)

// Breadcrumbs derives the trail for the page path passed in ?path=.
func Breadcrumbs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, breadcrumbs.Build(r.URL.Query().Get("path")))
	}
}
