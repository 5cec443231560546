package fundingdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
	mghelper "github.com/blockraise/crowdfund-api/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating categories table...")
		if err := mghelper.CreateSchema(ctx, db, &fundingstore.CategoryDao{}); err != nil {
			return err
		}
		// Category names are unique case-insensitively so the bootstrap
		// seed cannot duplicate "DeFi" as "defi".
		return mghelper.CreateExprUniqueIndex(ctx, db,
			"categories", "idx_categories_name_lower", "LOWER(name)")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping categories table...")
		return mghelper.DropTables(ctx, db, &fundingstore.CategoryDao{})
	})
}
