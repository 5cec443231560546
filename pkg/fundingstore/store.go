// Package fundingstore defines the storage contract for the crowdfunding
// bookkeeping system and its two implementations: a volatile in-memory
// store and a Postgres-backed store.
package fundingstore

import (
	"context"
	"errors"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// ErrDuplicate is returned by the persisted store when an insert hits a
// unique constraint (wallet address, username, category name, transaction
// hash). The service layer pre-checks for duplicates; the constraint is
// the backstop.
var ErrDuplicate = errors.New("duplicate record")

// UserStore provides user persistence. Wallet address lookups compare
// case-insensitively.
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*funding.User, error)
	GetUserByUsername(ctx context.Context, username string) (*funding.User, error)
	GetUserByWalletAddress(ctx context.Context, address string) (*funding.User, error)
	CreateUser(ctx context.Context, ins *funding.InsertUser) (*funding.User, error)
}

// CategoryStore provides category persistence. Name lookups compare
// case-insensitively.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]*funding.Category, error)
	GetCategory(ctx context.Context, id int64) (*funding.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*funding.Category, error)
	CreateCategory(ctx context.Context, ins *funding.InsertCategory) (*funding.Category, error)
}

// CampaignStore provides campaign persistence. List operations return
// campaigns newest-first (createdAt descending); limit/offset are applied
// after filtering and sorting, with limit defaulting to 100 when zero or
// negative.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id int64) (*funding.Campaign, error)
	GetCampaigns(ctx context.Context, limit, offset int) ([]*funding.Campaign, error)
	GetCampaignsByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]*funding.Campaign, error)
	GetCampaignsByCreator(ctx context.Context, creatorID int64) ([]*funding.Campaign, error)
	CreateCampaign(ctx context.Context, ins *funding.InsertCampaign) (*funding.Campaign, error)
	// UpdateCampaignAmount adds delta to the campaign's current amount and
	// returns the updated record, or (nil, nil) if the campaign does not
	// exist. It is the only mutation path for currentAmount.
	UpdateCampaignAmount(ctx context.Context, id int64, delta float64) (*funding.Campaign, error)
}

// ContributionStore provides contribution persistence. List operations
// return contributions newest-first (timestamp descending).
type ContributionStore interface {
	GetContribution(ctx context.Context, id int64) (*funding.Contribution, error)
	GetContributionsByUser(ctx context.Context, userID int64) ([]*funding.Contribution, error)
	GetContributionsByCampaign(ctx context.Context, campaignID int64) ([]*funding.Contribution, error)
	// CreateContribution stores the contribution and, within the same
	// logical operation, adds its amount to the campaign's current amount.
	CreateContribution(ctx context.Context, ins *funding.InsertContribution) (*funding.Contribution, error)
}

// Store is the contract every persistence backend must satisfy. Exactly
// one implementation is active per process, selected at startup.
//
// Absence of a requested record is represented as a (nil, nil) return,
// never as an error; backend faults propagate to the caller wrapped.
type Store interface {
	UserStore
	CategoryStore
	CampaignStore
	ContributionStore
}
