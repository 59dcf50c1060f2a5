package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/louisbranch/commandeer/internal/platform/logging"
)

func TestServerServesUntilCanceled(t *testing.T) {
	te := newTestEndpoint(t, noDispatch(t), time.Second)
	server, err := NewServer("127.0.0.1:0", te.endpoint, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewServerRequiresEndpoint(t *testing.T) {
	if _, err := NewServer("127.0.0.1:0", nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestServerCloseWithoutServe(t *testing.T) {
	te := newTestEndpoint(t, noDispatch(t), time.Second)
	server, err := NewServer("127.0.0.1:0", te.endpoint, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := server.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
