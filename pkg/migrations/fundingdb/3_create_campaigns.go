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
		log.Println("creating campaigns table...")
		if err := mghelper.CreateSchema(ctx, db, &fundingstore.CampaignDao{}); err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx,
			`ALTER TABLE campaigns
				ADD CONSTRAINT fk_campaigns_creator FOREIGN KEY (creator_id) REFERENCES users (id),
				ADD CONSTRAINT fk_campaigns_category FOREIGN KEY (category_id) REFERENCES categories (id)`,
		); err != nil {
			return err
		}

		// created_at backs the newest-first listing order.
		return mghelper.CreateModelIndexes(ctx, db,
			&fundingstore.CampaignDao{}, "creator_id", "category_id", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping campaigns table...")
		return mghelper.DropTables(ctx, db, &fundingstore.CampaignDao{})
	})
}
