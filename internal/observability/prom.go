package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Auth
	SessionsIssued  prometheus.Counter
	SessionLookups  *prometheus.CounterVec
	PasswordResets  *prometheus.CounterVec
	ResetMailResult *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "recipehub",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "recipehub",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "recipehub",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		SessionsIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Subsystem: "auth",
				Name:      "sessions_issued_total",
				Help:      "Sessions created at login or signup.",
			},
		),
		SessionLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Subsystem: "auth",
				Name:      "session_lookups_total",
				Help:      "Session lookups by outcome.",
			},
			[]string{"result"}, // result=valid|missing|expired
		),
		PasswordResets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Subsystem: "auth",
				Name:      "password_resets_total",
				Help:      "Password reset lifecycle events.",
			},
			[]string{"stage"}, // stage=issued|redeemed|rejected
		),
		ResetMailResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recipehub",
				Subsystem: "mail",
				Name:      "reset_links_total",
				Help:      "Reset-link deliveries by result.",
			},
			[]string{"result"}, // result=sent|retry|dropped
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.SessionsIssued, p.SessionLookups, p.PasswordResets, p.ResetMailResult,
	)

	return p
}

// The helpers below are nil-safe so components can run without metrics wired.

func (p *Prom) IncSessionIssued() {
	if p == nil {
		return
	}
	p.SessionsIssued.Inc()
}

func (p *Prom) IncSessionLookup(result string) {
	if p == nil {
		return
	}
	p.SessionLookups.WithLabelValues(result).Inc()
}

func (p *Prom) IncPasswordReset(stage string) {
	if p == nil {
		return
	}
	p.PasswordResets.WithLabelValues(stage).Inc()
}

func (p *Prom) IncResetMail(result string) {
	if p == nil {
		return
	}
	p.ResetMailResult.WithLabelValues(result).Inc()
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}
