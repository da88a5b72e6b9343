package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ackBody is the JSON envelope every webhook response carries. The upstream
// retries on status alone and ignores the body, so the envelope is for
// operators replaying deliveries by hand: Received says whether the callback
// was acted on, Error carries the failure detail when it was not.
type ackBody struct {
	Received  bool      `json:"received"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeAck(w http.ResponseWriter, status int, message string) {
	writeBody(w, status, ackBody{
		Received:  true,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func writeReject(w http.ResponseWriter, status int, message, detail string) {
	writeBody(w, status, ackBody{
		Received:  false,
		Message:   message,
		Error:     detail,
		Timestamp: time.Now(),
	})
}

func writeBody(w http.ResponseWriter, status int, body ackBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Printf("Error writing response: %v", err)
	}
}
