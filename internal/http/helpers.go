package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/core"
)

// maxBodyBytes caps request bodies; every payload here is a small JSON
// document.
const maxBodyBytes = 1 << 20 // 1MB

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON reads a bounded request body into dst, rejecting unknown
// fields so typos fail loudly at the boundary.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", dateStr)
	}
	return core.Date{Time: t}, nil
}

// parseAmount converts a decimal amount string ("12.34" or "12,34") to a
// validated Money value.
func parseAmount(amount string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid amount %q", amount)
	}
	return core.Money{Cents: cents}, nil
}

// pathID extracts the {id} path value as an int64.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to a default
// when absent or malformed.
func queryInt(r *http.Request, key string, defaultValue int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
