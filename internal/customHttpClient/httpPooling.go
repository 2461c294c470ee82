package customHttpClient

import (
	"net"
	"net/http"
	"time"

	"github.com/akolanti/DocuMind/internal/config"
)

// one transport for every outbound http dependency (llm, embeddings, elastic, minio)
var customTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          config.MaxIdleConns,
	MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
	IdleConnTimeout:       config.IdleConnTimeout,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

func Transport() *http.Transport {
	return customTransport
}

// New returns a client on the shared pool. A zero timeout leaves deadlines to the request context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
