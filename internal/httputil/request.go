package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxBodyBytes limits request bodies; backup imports are the largest payloads
const MaxBodyBytes = 10 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are allowed because layouts and patches carry free-form settings.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
