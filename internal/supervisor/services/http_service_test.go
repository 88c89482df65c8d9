// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package services

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"
)

// listenerServer serves on a listener opened by the test, so the port is
// known before Serve starts.
type listenerServer struct {
	*http.Server
	ln net.Listener
}

func (s *listenerServer) ListenAndServe() error {
	return s.Serve(s.ln)
}

// newScrapeServer serves a private registry holding one counter at /metrics.
func newScrapeServer(t *testing.T) (*listenerServer, string) {
	t.Helper()

	reg := prometheus.NewRegistry()
	trained := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "viewrec_test_trainings_total",
		Help: "Trainings seen by the test registry.",
	})
	reg.MustRegister(trained)
	trained.Add(3)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &listenerServer{
		Server: &http.Server{Handler: mux, ReadHeaderTimeout: time.Second},
		ln:     ln,
	}
	return srv, "http://" + ln.Addr().String() + "/metrics"
}

// scrape polls url until the listener answers or the deadline passes.
func scrape(t *testing.T, url string) string {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				t.Fatalf("read body: %v", readErr)
			}
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			return string(body)
		}
		if time.Now().After(deadline) {
			t.Fatalf("scrape %s: %v", url, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHTTPServerService_ServesMetricsUntilCanceled(t *testing.T) {
	srv, url := newScrapeServer(t)
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	body := scrape(t, url)
	if !strings.Contains(body, "viewrec_test_trainings_total 3") {
		t.Errorf("scrape body missing counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if _, err := http.Get(url); err == nil {
		t.Error("listener should be closed after shutdown")
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { busy.Close() })

	srv := &http.Server{Addr: busy.Addr().String(), ReadHeaderTimeout: time.Second}
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = svc.Serve(ctx)
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() = %v, want a listen error", err)
	}
	if !strings.Contains(err.Error(), "http server failed") {
		t.Errorf("error %q should be wrapped", err)
	}
}

func TestNewHTTPServerService(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"explicit timeout", 3 * time.Second, 3 * time.Second},
		{"zero uses default", 0, 10 * time.Second},
		{"negative uses default", -time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHTTPServerService(&http.Server{ReadHeaderTimeout: time.Second}, tt.timeout)
			if svc.shutdownTimeout != tt.want {
				t.Errorf("shutdownTimeout = %v, want %v", svc.shutdownTimeout, tt.want)
			}
			if svc.String() != "metrics-server" {
				t.Errorf("String() = %q, want metrics-server", svc.String())
			}
		})
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	srv, url := newScrapeServer(t)

	sup := suture.New("telemetry-test", suture.Spec{
		FailureThreshold: 5,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	if body := scrape(t, url); !strings.Contains(body, "viewrec_test_trainings_total") {
		t.Error("metrics not served under the supervisor")
	}

	cancel()
	<-errCh

	report, err := sup.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("%d services failed to stop", len(report))
	}
}
