package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/interfaces/http/common"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

func (h *Handler) companyReplaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var body catalog.Company
		if err := common.DecodeJSON(w, r, h.maxBodyBytes, &body); err != nil {
			h.fail(w, r, err)
			return
		}
		company, err := h.catalog.Replace(ctx, strings.TrimSpace(chi.URLParam(r, "id")), body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Company updated successfully", company)
	}
}

func (h *Handler) companyPatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		var patch catalog.Patch
		if err := common.DecodeJSON(w, r, h.maxBodyBytes, &patch); err != nil {
			h.fail(w, r, err)
			return
		}
		company, err := h.catalog.Patch(ctx, strings.TrimSpace(chi.URLParam(r, "id")), patch)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.ok(w, http.StatusOK, "Company updated successfully", company)
	}
}

// companyIngestHandler refreshes a company from EDGAR. The upstream call is
// rate limited, so it gets three times the usual budget.
func (h *Handler) companyIngestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*h.requestTimeout)
		defer cancel()

		cik := chi.URLParam(r, "cik")
		result, err := h.catalog.Ingest(ctx, cik)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		logging.Ctx(ctx, h.logger).Info().
			Str("cik", result.Company.CIK).
			Str("company_id", result.Company.ID).
			Bool("created", result.Created).
			Msg("company ingested")

		status, message := http.StatusOK, "Company refreshed from SEC"
		if result.Created {
			status, message = http.StatusCreated, "Company created from SEC"
		}
		h.ok(w, status, message, result)
	}
}
