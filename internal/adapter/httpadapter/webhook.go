package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/lora-locator/internal/domain"
	"github.com/couchcryptid/lora-locator/internal/observability"
)

// maxPayloadBytes bounds a webhook body. TTN uplinks are a few kilobytes.
const maxPayloadBytes = 1 << 20

// UplinkStore persists raw webhook payloads.
type UplinkStore interface {
	Store(ctx context.Context, kind domain.PayloadKind, payload json.RawMessage) error
	UplinkCount(ctx context.Context) (int64, error)
}

type webhooks struct {
	store   UplinkStore
	metrics *observability.Metrics
	logger  *slog.Logger
}

func (h *webhooks) handleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.UplinkCount(r.Context())
	if err != nil {
		h.logger.Error("count uplinks failed", "error", err)
		http.Error(w, "count uplinks failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Uplink count: %d", n)
}

func (h *webhooks) handleStore(kind domain.PayloadKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "read body failed", http.StatusBadRequest)
			return
		}
		if !json.Valid(body) {
			h.metrics.UplinksStored.WithLabelValues(string(kind), "rejected").Inc()
			http.Error(w, "body is not valid JSON", http.StatusBadRequest)
			return
		}

		if err := h.store.Store(r.Context(), kind, body); err != nil {
			h.metrics.UplinksStored.WithLabelValues(string(kind), "error").Inc()
			h.logger.Error("store webhook payload failed", "kind", kind, "error", err)
			http.Error(w, "store failed", http.StatusInternalServerError)
			return
		}

		h.metrics.UplinksStored.WithLabelValues(string(kind), "success").Inc()
		h.logger.Debug("webhook payload stored", "kind", kind, "bytes", len(body))
		w.WriteHeader(http.StatusOK)
	}
}
