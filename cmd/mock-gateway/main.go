// Local stand-in for the Chapa API so the payment flow can be exercised
// without real credentials.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/logging"
)

type initializeRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Email    string `json:"email"`
	TxRef    string `json:"tx_ref"`
}

var (
	mu   sync.Mutex
	seen = map[string]string{}
)

func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		var req initializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TxRef == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "failed",
				"message": "invalid payload",
			})
			return
		}

		// Amounts divisible by 7 are declined, for exercising the rollback path.
		if amt, err := decimal.NewFromString(req.Amount); err == nil && amt.Mod(decimal.NewFromInt(7)).IsZero() {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "failed",
				"message": "transaction declined",
			})
			return
		}

		mu.Lock()
		seen[req.TxRef] = "success"
		mu.Unlock()

		slog.Info("transaction initialized", "tx_ref", req.TxRef, "amount", req.Amount)
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data": map[string]string{
				"checkout_url": "http://localhost:8081/pay/" + req.TxRef,
				"tx_ref":       req.TxRef,
			},
		})
	})

	mux.HandleFunc("GET /transaction/verify/{tx_ref}", func(w http.ResponseWriter, r *http.Request) {
		txRef := r.PathValue("tx_ref")

		mu.Lock()
		_, ok := seen[txRef]
		mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"status":  "failed",
				"message": "transaction not found",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "Payment details",
			"data":    map[string]string{"tx_ref": txRef, "status": "success"},
		})
	})

	addr := ":8081"
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		addr = v
	}

	slog.Info("mock gateway started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
