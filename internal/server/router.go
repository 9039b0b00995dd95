package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docuflow/docstate/internal/core"
)

// DocumentReader resolves the latest record for a document ID.
// *store.DocumentStore satisfies it.
type DocumentReader interface {
	Latest(ctx context.Context, documentID string) (*core.DocumentRecord, uint64, error)
}

// NewRouter builds the read-only HTTP surface: health, metrics, and
// document status lookup. Uploads are handled elsewhere.
func NewRouter(docs DocumentReader) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/v1/documents/{documentID}", func(w http.ResponseWriter, req *http.Request) {
		documentID := chi.URLParam(req, "documentID")

		rec, _, err := docs.Latest(req.Context(), documentID)
		if err != nil {
			var coreErr *core.Error
			if errors.As(err, &coreErr) && coreErr.Code == core.ErrCodeRecordNotFound {
				writeError(w, http.StatusNotFound, coreErr)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"error": err.Error()}
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		body["code"] = coreErr.Code
		body["error"] = coreErr.Message
	}
	writeJSON(w, status, body)
}
