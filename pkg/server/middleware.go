package server

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shelfsight/shelfsight/config"
	"github.com/shelfsight/shelfsight/pkg/server/handlertools"
)

const versionHeader = "X-Shelfsight-Version"

// Recoverer turns a handler panic into the same JSON error body every
// other failure produces. Clients never see a plain-text 500.
func Recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.Errorf("panic serving %s %s: %v\n%s",
					r.Method, r.URL.Path, rvr, debug.Stack())
				handlertools.RenderError(w, fmt.Errorf("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// SendVersion is a middleware that adds the current version to the response
func SendVersion(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if w.Header().Get(versionHeader) == "" {
			w.Header().Add(
				versionHeader,
				config.VersionString,
			)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(fn)
}
