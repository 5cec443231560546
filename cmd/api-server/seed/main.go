// Command seed populates a development database with demo users,
// campaigns and contributions so the dashboard has something to show.
// It goes through the store so every record passes the same code paths
// as production writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/blockraise/crowdfund-api/pkg/config"
	"github.com/blockraise/crowdfund-api/pkg/funding"
	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
	"github.com/blockraise/crowdfund-api/pkg/pgutil"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	store := fundingstore.NewStore(db)
	ctx := context.Background()

	if err := seed(ctx, store); err != nil {
		log.Fatalf("seeding failed: %s", err.Error())
	}

	log.Println("demo data seeded")
}

func seed(ctx context.Context, store fundingstore.Store) error {
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return fmt.Errorf("no categories found; run migrations first")
	}

	users := make([]*funding.User, 0, 3)
	for i := 0; i < 3; i++ {
		user, err := store.CreateUser(ctx, &funding.InsertUser{
			Username:      fmt.Sprintf("demo-%s", uuid.NewString()[:8]),
			Password:      uuid.NewString(),
			WalletAddress: demoAddress(),
		})
		if err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}
		users = append(users, user)
	}

	titles := []string{
		"Open Hardware Wallet",
		"Community Garden DAO",
		"Indie Game Soundtrack",
	}

	for i, title := range titles {
		creator := users[i%len(users)]
		category := categories[i%len(categories)]

		campaign, err := store.CreateCampaign(ctx, &funding.InsertCampaign{
			Title:           title,
			Description:     "Demo campaign seeded for local development.",
			ImageURL:        "https://placehold.co/600x400",
			Goal:            float64(10 * (i + 1)),
			Deadline:        time.Now().AddDate(0, 1, 0),
			CreatorID:       creator.ID,
			CategoryID:      category.ID,
			ContractAddress: demoAddress(),
		})
		if err != nil {
			return fmt.Errorf("create demo campaign: %w", err)
		}

		for j, backer := range users {
			if backer.ID == creator.ID {
				continue
			}
			_, err := store.CreateContribution(ctx, &funding.InsertContribution{
				Amount:          0.5 * float64(j+1),
				UserID:          backer.ID,
				CampaignID:      campaign.ID,
				TransactionHash: demoTransactionHash(),
			})
			if err != nil {
				return fmt.Errorf("create demo contribution: %w", err)
			}
		}
	}

	return nil
}

// demoAddress derives a syntactically valid wallet address from random
// uuid bytes. These addresses do not correspond to real keys.
func demoAddress() string {
	a := uuid.New()
	b := uuid.New()
	return common.BytesToAddress(append(a[:], b[:4]...)).Hex()
}

// demoTransactionHash derives a syntactically valid 32-byte hash.
func demoTransactionHash() string {
	a := uuid.New()
	b := uuid.New()
	return common.BytesToHash(append(a[:], b[:]...)).Hex()
}
