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
		log.Println("creating contributions table...")
		if err := mghelper.CreateSchema(ctx, db, &fundingstore.ContributionDao{}); err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx,
			`ALTER TABLE contributions
				ADD CONSTRAINT fk_contributions_user FOREIGN KEY (user_id) REFERENCES users (id),
				ADD CONSTRAINT fk_contributions_campaign FOREIGN KEY (campaign_id) REFERENCES campaigns (id)`,
		); err != nil {
			return err
		}

		if err := mghelper.CreateModelIndexes(ctx, db,
			&fundingstore.ContributionDao{}, "user_id", "campaign_id"); err != nil {
			return err
		}

		// One on-chain transaction backs at most one recorded contribution.
		return mghelper.CreateExprUniqueIndex(ctx, db,
			"contributions", "idx_contributions_transaction_hash_lower", "LOWER(transaction_hash)")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping contributions table...")
		return mghelper.DropTables(ctx, db, &fundingstore.ContributionDao{})
	})
}
