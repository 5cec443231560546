// Package metrics exposes prometheus collectors for campaign and
// contribution activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UsersRegistered counts created users
	UsersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdfund_users_registered_total",
			Help: "Total number of registered users",
		},
	)

	// CampaignsCreated counts created campaigns by category
	CampaignsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowdfund_campaigns_created_total",
			Help: "Total number of campaigns created",
		},
		[]string{"category"},
	)

	// ContributionsRecorded counts stored contributions
	ContributionsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdfund_contributions_recorded_total",
			Help: "Total number of contributions recorded",
		},
	)

	// ContributionAmount tracks the distribution of contribution amounts
	ContributionAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crowdfund_contribution_amount",
			Help:    "Contribution amounts",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 100, 1000, 10000},
		},
	)

	// DuplicateTransactionsRejected counts contributions rejected by the
	// duplicate transaction-hash check
	DuplicateTransactionsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdfund_duplicate_transactions_rejected_total",
			Help: "Total number of contributions rejected as duplicate transactions",
		},
	)

	// CampaignDriftDetected counts campaigns whose stored total diverged
	// from the sum of their contributions
	CampaignDriftDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdfund_campaign_drift_detected_total",
			Help: "Total number of campaign totals found out of sync with contributions",
		},
	)

	// CampaignDriftRepaired counts campaign totals corrected by the reconciler
	CampaignDriftRepaired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crowdfund_campaign_drift_repaired_total",
			Help: "Total number of campaign totals repaired by the reconciler",
		},
	)
)
