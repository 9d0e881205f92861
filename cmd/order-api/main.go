// Command order-api is the stand-in order-cancellation service used in
// development: it accepts any cancellation and answers 204 No Content.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/altinsoy/destek/common/environment"
	"github.com/altinsoy/destek/internal/destek/observability"
)

type cancelRequest struct {
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

func main() {
	observability.Setup(
		environment.StringOr("DESTEK_LOG_LEVEL", "info"),
		environment.StringOr("DESTEK_LOG_FORMAT", "text"),
	)
	addr := environment.StringOr("ORDER_API_ADDR", ":8002")

	mux := http.NewServeMux()
	mux.HandleFunc("/cancel", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req cancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		slog.Info("order cancel request",
			"order_number", req.OrderNumber,
			"reason", req.Reason,
		)
		w.WriteHeader(http.StatusNoContent)
	})

	slog.Info("order api listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("order api stopped", "err", err)
		os.Exit(1)
	}
}
