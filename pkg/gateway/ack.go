package gateway

import (
	"net/http"

	"github.com/getmockd/schemagate/pkg/httputil"
)

// Ack is the body returned for requests that passed validation.
type Ack struct {
	Message AckMessage `json:"message"`
}

// AckMessage wraps the acknowledgement status.
type AckMessage struct {
	Ack AckStatus `json:"ack"`
}

// AckStatus is the acknowledgement status.
type AckStatus struct {
	Status string `json:"status"`
}

// AckHandler answers every request with a protocol ACK.
func AckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, Ack{Message: AckMessage{Ack: AckStatus{Status: "ACK"}}})
	})
}
