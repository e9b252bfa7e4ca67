package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheet_analytics_registrations_total",
		Help: "Number of successful user registrations.",
	})
	Logins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheet_analytics_logins_total",
		Help: "Number of successful logins.",
	})
	SheetUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheet_analytics_sheet_uploads_total",
		Help: "Number of spreadsheets uploaded and stored.",
	})
	InsightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_analytics_insight_requests_total",
		Help: "Number of AI insight requests, by result.",
	}, []string{"result"}) // hit, miss, error
	RoleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_analytics_role_transitions_total",
		Help: "Number of applied role transitions, by kind.",
	}, []string{"kind"}) // direct_set, request_approved, request_denied
)
