package fundingstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// UserDao maps directly to the 'users' table. The case-insensitive unique
// index on wallet_address lives in the migrations, not in the tags.
type UserDao struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Username      string `bun:"username,unique,notnull,type:varchar(64)"`
	Password      string `bun:"password,notnull,type:text"`
	WalletAddress string `bun:"wallet_address,notnull,type:varchar(42)"`
}

// CategoryDao maps directly to the 'categories' table.
type CategoryDao struct {
	bun.BaseModel `bun:"table:categories,alias:cat"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,notnull,type:varchar(100)"`
	Color         string `bun:"color,notnull,type:varchar(32)"`
}

// CampaignDao maps directly to the 'campaigns' table.
type CampaignDao struct {
	bun.BaseModel   `bun:"table:campaigns,alias:cmp"`
	ID              int64     `bun:"id,pk,autoincrement"`
	Title           string    `bun:"title,notnull,type:varchar(200)"`
	Description     string    `bun:"description,notnull,type:text"`
	ImageURL        string    `bun:"image_url,notnull,type:text"`
	Goal            float64   `bun:"goal,notnull,type:double precision"`
	CurrentAmount   float64   `bun:"current_amount,notnull,default:0,type:double precision"`
	Deadline        time.Time `bun:"deadline,notnull"`
	CreatorID       int64     `bun:"creator_id,notnull"`
	CategoryID      int64     `bun:"category_id,notnull"`
	ContractAddress string    `bun:"contract_address,notnull,type:varchar(42)"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ContributionDao maps directly to the 'contributions' table.
type ContributionDao struct {
	bun.BaseModel   `bun:"table:contributions,alias:ctb"`
	ID              int64     `bun:"id,pk,autoincrement"`
	Amount          float64   `bun:"amount,notnull,type:double precision"`
	UserID          int64     `bun:"user_id,notnull"`
	CampaignID      int64     `bun:"campaign_id,notnull"`
	TransactionHash string    `bun:"transaction_hash,notnull,type:varchar(66)"`
	Timestamp       time.Time `bun:"timestamp,nullzero,notnull,default:current_timestamp"`
}

func toUser(dao *UserDao) *funding.User {
	return &funding.User{
		ID:            dao.ID,
		Username:      dao.Username,
		Password:      dao.Password,
		WalletAddress: dao.WalletAddress,
	}
}

func toCategory(dao *CategoryDao) *funding.Category {
	return &funding.Category{
		ID:    dao.ID,
		Name:  dao.Name,
		Color: dao.Color,
	}
}

func toCampaign(dao *CampaignDao) *funding.Campaign {
	return &funding.Campaign{
		ID:              dao.ID,
		Title:           dao.Title,
		Description:     dao.Description,
		ImageURL:        dao.ImageURL,
		Goal:            dao.Goal,
		CurrentAmount:   dao.CurrentAmount,
		Deadline:        dao.Deadline,
		CreatorID:       dao.CreatorID,
		CategoryID:      dao.CategoryID,
		ContractAddress: dao.ContractAddress,
		CreatedAt:       dao.CreatedAt,
	}
}

func toContribution(dao *ContributionDao) *funding.Contribution {
	return &funding.Contribution{
		ID:              dao.ID,
		Amount:          dao.Amount,
		UserID:          dao.UserID,
		CampaignID:      dao.CampaignID,
		TransactionHash: dao.TransactionHash,
		Timestamp:       dao.Timestamp,
	}
}

func toCampaigns(daos []CampaignDao) []*funding.Campaign {
	out := make([]*funding.Campaign, len(daos))
	for i := range daos {
		out[i] = toCampaign(&daos[i])
	}
	return out
}

func toContributions(daos []ContributionDao) []*funding.Contribution {
	out := make([]*funding.Contribution, len(daos))
	for i := range daos {
		out[i] = toContribution(&daos[i])
	}
	return out
}
