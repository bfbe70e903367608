package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Response is the envelope every endpoint returns. Business failures are
// signaled through Success=false; the HTTP status is always 200, so clients
// must branch on the body rather than the status code.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RespondJSON writes data as a JSON body with HTTP 200.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondSuccess writes a success envelope.
func RespondSuccess(w http.ResponseWriter, message string) {
	RespondJSON(w, Response{Success: true, Message: message})
}

// RespondFailure writes a failure envelope. Still HTTP 200 by contract.
func RespondFailure(w http.ResponseWriter, message string) {
	RespondJSON(w, Response{Success: false, Message: message})
}
