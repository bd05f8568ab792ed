// Package fetchtest provides local HTTP file servers for download tests.
package fetchtest

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
)

// Response is one canned reply.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Server replays Responses in order, repeating the last one, and counts hits.
type Server struct {
	*httptest.Server
	hits      atomic.Int32
	responses []Response
}

// Hits returns how many requests the server has answered.
func (s *Server) Hits() int { return int(s.hits.Load()) }

// NewServer starts a tcp4 loopback server. Tests are skipped when the
// sandbox forbids opening a listener.
func NewServer(t testing.TB, h http.Handler) *httptest.Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := httptest.NewUnstartedServer(h)
	_ = srv.Listener.Close()
	srv.Listener = ln
	srv.Start()
	t.Cleanup(srv.Close)
	return srv
}

// Sequence starts a Server that answers GET requests with responses in order.
func Sequence(t testing.TB, responses ...Response) *Server {
	t.Helper()
	if len(responses) == 0 {
		t.Fatalf("fetchtest.Sequence needs at least one response")
	}
	s := &Server{responses: responses}
	s.Server = NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		i := int(s.hits.Add(1)) - 1
		if i >= len(s.responses) {
			i = len(s.responses) - 1
		}
		resp := s.responses[i]
		ct := resp.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		st := resp.Status
		if st == 0 {
			st = http.StatusOK
		}
		w.WriteHeader(st)
		_, _ = w.Write(resp.Body)
	}))
	return s
}

// Bytes is shorthand for a 200 octet-stream response.
func Bytes(b []byte) Response {
	return Response{Status: http.StatusOK, Body: b}
}
