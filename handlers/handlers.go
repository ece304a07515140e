package handlers

import (
	"net/http"
	"time"

	"tailcart/engine"
	"tailcart/faults"
	"tailcart/utils"
)

// opTimeout bounds how long a request waits for a store operation to
// resolve against the upstream before the handler gives up.
const opTimeout = 15 * time.Second

// Handlers serves the view-state API. Every request resolves its owner's
// engine through the registry; the stores do the actual work.
type Handlers struct {
	registry        *engine.Registry
	checkoutIdemTTL time.Duration
}

func New(registry *engine.Registry, checkoutIdemTTL time.Duration) *Handlers {
	if checkoutIdemTTL <= 0 {
		checkoutIdemTTL = 24 * time.Hour
	}
	return &Handlers{registry: registry, checkoutIdemTTL: checkoutIdemTTL}
}

// engineFor resolves the caller's engine from the bearer token. The auth
// middleware already vetted the token, so failures here are rare (expired
// between middleware and handler, or upstream pet fetch down).
func (h *Handlers) engineFor(r *http.Request) (*engine.Engine, error) {
	return h.registry.Get(r.Context(), r.Header.Get("Authorization"))
}

func respondErr(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, faults.Status(err), err.Error())
}

// awaitErr blocks on a store completion callback and reports whether the
// operation resolved in time.
func awaitErr(done chan error) (error, bool) {
	select {
	case err := <-done:
		return err, true
	case <-timeoutChan():
		return nil, false
	}
}

func timeoutChan() <-chan time.Time {
	return time.After(opTimeout)
}

func respondTimeout(w http.ResponseWriter) {
	utils.RespondWithError(w, http.StatusGatewayTimeout, "store did not respond in time")
}
