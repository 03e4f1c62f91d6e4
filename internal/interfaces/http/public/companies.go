package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
)

func (h *Handler) companyListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		query := r.URL.Query()
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), 20)

		filter := catalogapp.Filter{
			Sector:   query.Get("sector"),
			Industry: query.Get("industry"),
			Tag:      query.Get("tag"),
			Keyword:  query.Get("keyword"),
		}
		result, err := h.catalog.List(ctx, filter, catalogapp.Paging{Page: page, Limit: limit})
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Companies retrieved successfully", result)
	}
}

func (h *Handler) companyDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		company, err := h.catalog.Detail(ctx, strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Company retrieved successfully", company)
	}
}

func (h *Handler) searchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		query := r.URL.Query().Get("query")
		if query == "" {
			query = r.URL.Query().Get("q")
		}
		result, err := h.catalog.Search(ctx, query)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Search results retrieved", result)
	}
}
