package fundingstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// DefaultCategories is the fixed reference data every deployment starts
// with. Categories are never deleted or renamed, so the list only grows.
var DefaultCategories = []funding.InsertCategory{
	{Name: "Technology", Color: "#6366f1"},
	{Name: "Art & Creative", Color: "#8b5cf6"},
	{Name: "Community", Color: "#10b981"},
	{Name: "DeFi", Color: "#3b82f6"},
	{Name: "NFT", Color: "#f59e0b"},
	{Name: "Gaming", Color: "#ef4444"},
}

// EnsureDefaultCategories inserts any default category missing from the
// store. The name check makes it idempotent across restarts. Seeding is
// best-effort: failures are logged and the process keeps running.
func EnsureDefaultCategories(ctx context.Context, store CategoryStore, logger *zap.Logger) {
	for i := range DefaultCategories {
		ins := DefaultCategories[i]

		existing, err := store.GetCategoryByName(ctx, ins.Name)
		if err != nil {
			logger.Warn("Category seed lookup failed",
				zap.String("name", ins.Name),
				zap.Error(err))
			continue
		}
		if existing != nil {
			continue
		}

		if _, err := store.CreateCategory(ctx, &ins); err != nil {
			logger.Warn("Category seed insert failed",
				zap.String("name", ins.Name),
				zap.Error(err))
			continue
		}
		logger.Info("Seeded default category", zap.String("name", ins.Name))
	}
}
