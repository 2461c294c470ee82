package customHttpClient

import (
	"testing"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
)

func TestNewSharesTransport(t *testing.T) {
	a := New(time.Second)
	b := New(0)

	if a.Transport != b.Transport {
		t.Error("clients should share one transport")
	}
	if a.Timeout != time.Second || b.Timeout != 0 {
		t.Errorf("timeouts not applied: %v %v", a.Timeout, b.Timeout)
	}
	if Transport().MaxIdleConnsPerHost != config.MaxIdleConnsPerHost {
		t.Errorf("got %d idle conns per host", Transport().MaxIdleConnsPerHost)
	}
}
