package fundingdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("seeding categories table...")

		categories := make([]fundingstore.CategoryDao, 0, len(fundingstore.DefaultCategories))
		for _, c := range fundingstore.DefaultCategories {
			categories = append(categories, fundingstore.CategoryDao{
				Name:  c.Name,
				Color: c.Color,
			})
		}

		// ON CONFLICT keeps the seed idempotent across reruns.
		_, err := db.NewInsert().
			Model(&categories).
			On("CONFLICT DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("removing seeded categories...")

		names := make([]string, 0, len(fundingstore.DefaultCategories))
		for _, c := range fundingstore.DefaultCategories {
			names = append(names, c.Name)
		}

		_, err := db.NewDelete().
			Model((*fundingstore.CategoryDao)(nil)).
			Where("name IN (?)", bun.In(names)).
			Exec(ctx)
		return err
	})
}
