package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Tersy89/Share-sales-FIFO/src/logger"
)

type errorBody struct {
	Error string `json:"error"`
}

// SendJSON writes v as a JSON response with the given status code. Encode
// failures can only be logged: the status line is already on the wire.
func SendJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger.L != nil {
		logger.L.Error("Failed to encode JSON response", "statusCode", statusCode, "error", err)
	}
}

// SendJSONError sends a JSON formatted error response.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	if logger.L != nil { // Check if logger is initialized
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	SendJSON(w, statusCode, errorBody{Error: message})
}

// GenerateETag hashes the JSON representation of data into a strong ETag.
// The returned value includes the surrounding double quotes, ready to be
// set on the ETag header and compared against If-None-Match entries.
func GenerateETag(data interface{}) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag generation: %w", err)
	}
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%q", hex.EncodeToString(hash[:])), nil
}

// ETagMatches reports whether any entry in the request's If-None-Match
// header equals the given quoted ETag.
func ETagMatches(r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimSpace(candidate) == etag {
			return true
		}
	}
	return false
}
