package proxy

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/valyala/fasthttp"
)

// StatusPage serves a tiny introspection endpoint separate from the
// Prometheus /metrics endpoint: the set of plugin names currently loaded
// and a live count of forwarding pairs, for an operator poking at the
// proxy with curl rather than a metrics scraper.
type StatusPage struct {
	pluginNames []string
	activePairs int64

	mu     sync.Mutex
	server *fasthttp.Server
}

// NewStatusPage records the plugin names a Dispatcher was built from; call
// before the Dispatcher starts mutating (it doesn't, after NewDispatcher,
// but this keeps StatusPage from needing to reach into Dispatcher's
// internals).
func NewStatusPage(pluginNames []string) *StatusPage {
	return &StatusPage{pluginNames: append([]string(nil), pluginNames...)}
}

// PairStarted/PairStopped track the live forwarding-pair count surfaced at
// "active_pairs"; Pair.Run's caller is expected to call these around it.
func (s *StatusPage) PairStarted() { atomic.AddInt64(&s.activePairs, 1) }
func (s *StatusPage) PairStopped() { atomic.AddInt64(&s.activePairs, -1) }

type statusResponse struct {
	Plugins     []string `json:"plugins"`
	ActivePairs int64    `json:"active_pairs"`
}

func (s *StatusPage) handle(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) != "/status" {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		return
	}
	body, err := json.Marshal(statusResponse{
		Plugins:     s.pluginNames,
		ActivePairs: atomic.LoadInt64(&s.activePairs),
	})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// ListenAndServe blocks serving the status page on addr until the server
// is shut down or the listener errors.
func (s *StatusPage) ListenAndServe(addr string) error {
	s.mu.Lock()
	s.server = &fasthttp.Server{Handler: s.handle}
	server := s.server
	s.mu.Unlock()
	return server.ListenAndServe(addr)
}

// Shutdown stops an in-flight ListenAndServe gracefully.
func (s *StatusPage) Shutdown() error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown()
}
