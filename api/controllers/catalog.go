package controllers

import (
	"net/http"

	"github.com/angelmondragon/homeplast-storefront/api/responses"
	"github.com/angelmondragon/homeplast-storefront/api/validators"
	"github.com/angelmondragon/homeplast-storefront/internal/catalog"
	"github.com/angelmondragon/homeplast-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/logger"
	"github.com/angelmondragon/homeplast-storefront/pkg/pagination"
)

// ProductList returns a filtered, sorted page of the catalog.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		query, err := parseProductQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseProductQuery(r *http.Request) (catalog.Query, error) {
	var q catalog.Query

	q.Filter.Categories = validators.ParseQueryList(r, "category")
	q.Filter.Sizes = validators.ParseQueryList(r, "size")
	q.Filter.Colors = validators.ParseQueryList(r, "color")

	var err error
	if q.Filter.Price.Min, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return q, err
	}
	if q.Filter.Price.Max, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return q, err
	}
	if q.Filter.Capacity.Min, err = validators.ParseQueryDecimal(r, "min_capacity"); err != nil {
		return q, err
	}
	if q.Filter.Capacity.Max, err = validators.ParseQueryDecimal(r, "max_capacity"); err != nil {
		return q, err
	}

	q.Sort = enums.ProductSortRelevance
	if raw := r.URL.Query().Get("sort"); raw != "" {
		sort, err := enums.ParseProductSort(raw)
		if err != nil {
			return q, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").WithDetails(map[string]any{"field": "sort"})
		}
		q.Sort = sort
	}

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return q, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return q, err
	}
	q.Page = pagination.Params{Page: page, Limit: limit}
	return q, nil
}

// ProductDetail returns one product by id or slug.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		idOrSlug, err := requireURLParam(r, "idOrSlug")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), idOrSlug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CategoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

func BrandList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		brands, err := svc.ListBrands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}
