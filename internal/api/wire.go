package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"rumormill/internal/rumor"
)

// ErrInvalidJSON reports a request body that failed to parse.
var ErrInvalidJSON = errors.New("invalid json")

// DecodeRumorPatch parses a rumor create or update body. Unknown keys are
// ignored so older UI builds keep working after the payload grows.
func DecodeRumorPatch(r io.Reader) (rumor.Patch, error) {
	var patch rumor.Patch
	if err := json.NewDecoder(r).Decode(&patch); err != nil {
		return rumor.Patch{}, fmt.Errorf("decode rumor payload: %w", ErrInvalidJSON)
	}
	return patch, nil
}

// ErrorStatus maps an error onto the HTTP status code and the short wire
// message the web UI matches on. Unrecognized errors surface verbatim as
// internal server errors.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, rumor.ErrBusy):
		return http.StatusServiceUnavailable, "busy"
	case errors.Is(err, rumor.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, rumor.ErrInvalidInput):
		return http.StatusBadRequest, "missing fields"
	case errors.Is(err, ErrInvalidJSON):
		return http.StatusBadRequest, "invalid json"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
