// Package reconciler verifies that each campaign's running total matches
// the sum of its stored contributions, and optionally repairs totals that
// have drifted.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/blockraise/crowdfund-api/internal/metrics"
	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// pageSize is the campaign batch size used when walking the store.
const pageSize = 100

// driftTolerance absorbs float rounding from the increment path; anything
// beyond it counts as drift.
var driftTolerance = decimal.New(1, -9)

// Store is the subset of the storage contract the reconciler needs.
type Store interface {
	GetCampaigns(ctx context.Context, limit, offset int) ([]*funding.Campaign, error)
	GetContributionsByCampaign(ctx context.Context, campaignID int64) ([]*funding.Contribution, error)
	UpdateCampaignAmount(ctx context.Context, id int64, delta float64) (*funding.Campaign, error)
}

// Reconciler walks all campaigns and compares each stored currentAmount
// with the sum of that campaign's contributions.
type Reconciler struct {
	store  Store
	logger *zap.Logger
	repair bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a Reconciler. With repair enabled drifted totals are
// corrected in place; otherwise drift is only logged and counted.
func New(store Store, logger *zap.Logger, repair bool) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		repair: repair,
		stopCh: make(chan struct{}),
	}
}

// ReconcileAll checks every campaign once. Per-campaign failures are
// logged and skipped so one bad record cannot stall the sweep; the
// returned error covers only failures to enumerate campaigns.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	r.logger.Info("Starting campaign total reconciliation")
	start := time.Now()

	var checked, drifted, repaired int
	for offset := 0; ; offset += pageSize {
		campaigns, err := r.store.GetCampaigns(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list campaigns: %w", err)
		}
		if len(campaigns) == 0 {
			break
		}

		for _, campaign := range campaigns {
			checked++
			fixed, wasDrifted, err := r.reconcileCampaign(ctx, campaign)
			if err != nil {
				r.logger.Error("Failed to reconcile campaign",
					zap.Int64("campaign_id", campaign.ID),
					zap.Error(err))
				continue
			}
			if wasDrifted {
				drifted++
			}
			if fixed {
				repaired++
			}
		}

		if len(campaigns) < pageSize {
			break
		}
	}

	r.logger.Info("Campaign total reconciliation completed",
		zap.Int("campaigns_checked", checked),
		zap.Int("drift_detected", drifted),
		zap.Int("drift_repaired", repaired),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// reconcileCampaign compares one campaign's stored total against the sum
// of its contributions. Returns whether the total was repaired and
// whether drift was detected.
func (r *Reconciler) reconcileCampaign(ctx context.Context, campaign *funding.Campaign) (bool, bool, error) {
	contributions, err := r.store.GetContributionsByCampaign(ctx, campaign.ID)
	if err != nil {
		return false, false, fmt.Errorf("failed to list contributions: %w", err)
	}

	expected := decimal.Zero
	for _, c := range contributions {
		expected = expected.Add(decimal.NewFromFloat(c.Amount))
	}

	stored := decimal.NewFromFloat(campaign.CurrentAmount)
	diff := expected.Sub(stored)
	if diff.Abs().LessThanOrEqual(driftTolerance) {
		return false, false, nil
	}

	metrics.CampaignDriftDetected.Inc()
	r.logger.Warn("Campaign total out of sync with contributions",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("stored", stored.String()),
		zap.String("expected", expected.String()),
		zap.Int("contributions", len(contributions)))

	if !r.repair {
		return false, true, nil
	}

	delta, _ := diff.Float64()
	updated, err := r.store.UpdateCampaignAmount(ctx, campaign.ID, delta)
	if err != nil {
		return false, true, fmt.Errorf("failed to repair total: %w", err)
	}
	if updated == nil {
		// Campaign deleted between listing and repair.
		return false, true, nil
	}

	metrics.CampaignDriftRepaired.Inc()
	r.logger.Info("Campaign total repaired",
		zap.Int64("campaign_id", campaign.ID),
		zap.Float64("current_amount", updated.CurrentAmount))
	return true, true, nil
}

// StartPeriodicReconciliation starts a background goroutine that
// reconciles on the given interval until Stop is called.
func (r *Reconciler) StartPeriodicReconciliation(interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("Started periodic reconciliation", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Periodic reconciliation failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping periodic reconciliation")
				return
			}
		}
	}()
}

// Stop halts periodic reconciliation and waits for the worker to exit.
// Safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
