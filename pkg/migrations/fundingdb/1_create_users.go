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
		log.Println("creating users table...")
		if err := mghelper.CreateSchema(ctx, db, &fundingstore.UserDao{}); err != nil {
			return err
		}
		// Wallet addresses are unique regardless of hex casing.
		return mghelper.CreateExprUniqueIndex(ctx, db,
			"users", "idx_users_wallet_address_lower", "LOWER(wallet_address)")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping users table...")
		return mghelper.DropTables(ctx, db, &fundingstore.UserDao{})
	})
}
