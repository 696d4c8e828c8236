package httpx

import (
	"io"
	"net/http"

	"github.com/hmcts/xui-gateway/internal/service"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessReporter exposes the login gate state.
type ReadinessReporter interface {
	State() (service.GateState, error)
}

// readyHandler answers 200 once login is possible and 503 before that or after a startup failure.
func readyHandler(gate ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state, _ := gate.State()
		code := http.StatusOK
		if state != service.GateReady {
			code = http.StatusServiceUnavailable
		}
		WriteJSON(w, code, map[string]string{"status": string(state)})
	}
}
