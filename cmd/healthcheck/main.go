// Command healthcheck probes the local bridge's health endpoint and exits 0
// when it reports ok. It is meant for container HEALTHCHECK directives, where
// no shell or curl is available.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/fieldorders/internal/adapter/driving/http"
)

const (
	probeTimeout = 2 * time.Second
	fallbackAddr = "127.0.0.1:8080"
)

func main() {
	os.Exit(probe(context.Background(), os.Getenv("FIELDORDERS_LISTEN_ADDR")))
}

// probe returns the process exit code for a health request against the
// bridge listening on listenAddr.
func probe(ctx context.Context, listenAddr string) int {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	target := url.URL{Scheme: "http", Host: loopbackAddr(listenAddr), Path: "/api/v1/health"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return 1
	}

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	var health httphandler.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&health); err != nil || health.Status != "ok" {
		return 1
	}
	return 0
}

// loopbackAddr rewrites a bind-all listen address to loopback, since the
// probe runs next to the bridge.
func loopbackAddr(raw string) string {
	if raw == "" {
		return fallbackAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return fallbackAddr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
