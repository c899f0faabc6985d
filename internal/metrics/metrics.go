package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Close causes, used as the label on the sessions-closed counter.
const (
	CauseLogout = "logout"
	CauseIdle   = "idle"
	CauseStale  = "stale"
)

var (
	// SessionsOpened counts sessions opened, including implicit opens
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ual_sessions_opened_total",
		Help: "Total number of sessions opened",
	})

	// SessionsClosed counts sessions closed, labelled by cause
	SessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ual_sessions_closed_total",
		Help: "Total number of sessions closed",
	}, []string{"cause"})

	// ActivitiesRecorded counts recorded activities, labelled by type
	ActivitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ual_activities_recorded_total",
		Help: "Total number of activities recorded",
	}, []string{"type"})
)
