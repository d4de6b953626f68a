package httpx

import "net/http"

// healthHandler reports process liveness. It deliberately checks nothing
// downstream so load balancers do not recycle instances on database blips.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
