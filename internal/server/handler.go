package server

import (
	"net/http"

	"github.com/lucamaraschi/fastify/internal/reply"
)

// HandlerFunc is an application handler. Whatever it returns is handed to
// reply.Send: a value, an error, a *fault.Fault, a reply.Future, an
// io.Reader or nil. A handler that already called Send (or Redirect) on
// the reply should return nil; the returned value is ignored once the
// reply has accepted a payload.
type HandlerFunc func(rep *reply.Reply, r *http.Request) any

// wrap adapts a HandlerFunc to net/http. It creates one Reply per request,
// feeds the handler result to Send and blocks until the terminal write
// completed, since net/http reclaims the sink when ServeHTTP returns.
func wrap(store *reply.Store, h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := reply.New(w, r, store)

		result := h(rep, r)
		if !rep.Sent() {
			_ = rep.Send(result)
		}

		<-rep.Done()
	}
}
