package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var ErrInvalidPage = errors.New("invalid pagination parameters")

// Page is an offset/limit window over an ordered listing.
type Page struct {
	Skip  int
	Limit int
}

// RespondWithError writes an error response in JSON format
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// DecodeJSON reads a JSON object from the request body.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

// ParsePage reads ?skip= and ?limit= with defaults 0 and DefaultLimit.
func ParsePage(r *http.Request) (Page, error) {
	page := Page{Skip: 0, Limit: DefaultLimit}
	q := r.URL.Query()

	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return Page{}, fmt.Errorf("%w: skip must be a non-negative integer", ErrInvalidPage)
		}
		page.Skip = skip
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Page{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPage, MaxLimit)
		}
		page.Limit = limit
	}

	return page, nil
}

// ParseID converts a path segment to a positive integer id.
func ParseID(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
