// Package metrics exposes the Prometheus instruments for the rewards
// engine and the handler that serves them.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicketsSold counts lottery tickets sold, labelled by pool type.
	TicketsSold = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carvfi_tickets_sold_total",
		Help: "Number of lottery tickets sold.",
	}, []string{"pool_type"})

	// DrawsSettled counts completed pool settlements by pool type.
	DrawsSettled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carvfi_draws_settled_total",
		Help: "Number of lottery pools settled.",
	}, []string{"pool_type"})

	// TasksCompleted counts successful task claims by task ID.
	TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carvfi_tasks_completed_total",
		Help: "Number of task completions credited.",
	}, []string{"task_id"})

	// PointsAwarded accumulates GEMs credited to users, by reason.
	PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carvfi_points_awarded_total",
		Help: "Total GEMs credited, by reason.",
	}, []string{"reason"})

	// PointsSpent accumulates GEMs debited from users, by reason.
	PointsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carvfi_points_spent_total",
		Help: "Total GEMs debited, by reason.",
	}, []string{"reason"})

	// LedgerDrift counts users whose balance disagreed with their ledger
	// sum during a verification sweep. Anything above zero is a bug.
	LedgerDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carvfi_ledger_drift_total",
		Help: "Users found with balance/ledger disagreement during verification.",
	})
)

// Handler returns the gin handler serving the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
