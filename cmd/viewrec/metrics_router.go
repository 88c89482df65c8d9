// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scrapeLimitPerMinute bounds scrapes per client IP.
const scrapeLimitPerMinute = 1000

// newMetricsRouter serves the prometheus registry at path.
func newMetricsRouter(path string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.LimitByIP(scrapeLimitPerMinute, time.Minute))

	r.Handle(path, promhttp.Handler())

	return r
}
