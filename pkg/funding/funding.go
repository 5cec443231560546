// Package funding defines the crowdfunding entity model shared by the
// storage backends and the service layer.
package funding

import "time"

// User is a registered dashboard user identified by a wallet address.
// Users are immutable after creation and are never deleted.
type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Password      string `json:"-"`
	WalletAddress string `json:"walletAddress"`
}

// Category is a campaign category with a display color.
// Six fixed categories are seeded at bootstrap; categories are never
// deleted or renamed.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Campaign is a funding request with a goal amount and deadline.
// CurrentAmount is the only mutable field in the model: it tracks the sum
// of all contribution amounts for the campaign and changes only through
// the contribution accumulation path.
type Campaign struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ImageURL        string    `json:"imageUrl"`
	Goal            float64   `json:"goal"`
	CurrentAmount   float64   `json:"currentAmount"`
	Deadline        time.Time `json:"deadline"`
	CreatorID       int64     `json:"creatorId"`
	CategoryID      int64     `json:"categoryId"`
	ContractAddress string    `json:"contractAddress"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Contribution is a recorded pledge of funds toward a campaign. The
// transaction hash is an opaque on-chain reference; its validity is
// established by the chain, not verified here.
type Contribution struct {
	ID              int64     `json:"id"`
	Amount          float64   `json:"amount"`
	UserID          int64     `json:"userId"`
	CampaignID      int64     `json:"campaignId"`
	TransactionHash string    `json:"transactionHash"`
	Timestamp       time.Time `json:"timestamp"`
}

// InsertUser is the payload for creating a user.
type InsertUser struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	Password      string `json:"password" validate:"required,min=8"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

// InsertCategory is the payload for creating a category.
type InsertCategory struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,max=32"`
}

// InsertCampaign is the payload for creating a campaign. The store assigns
// the id, stamps createdAt, and starts currentAmount at zero; callers
// cannot supply any of those.
type InsertCampaign struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description" validate:"required"`
	ImageURL        string    `json:"imageUrl" validate:"required,url"`
	Goal            float64   `json:"goal" validate:"required,gt=0"`
	Deadline        time.Time `json:"deadline" validate:"required"`
	CreatorID       int64     `json:"creatorId" validate:"required,gt=0"`
	CategoryID      int64     `json:"categoryId" validate:"required,gt=0"`
	ContractAddress string    `json:"contractAddress" validate:"required"`
}

// InsertContribution is the payload for recording a contribution. The
// store assigns the id and stamps the timestamp.
type InsertContribution struct {
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	UserID          int64   `json:"userId" validate:"required,gt=0"`
	CampaignID      int64   `json:"campaignId" validate:"required,gt=0"`
	TransactionHash string  `json:"transactionHash" validate:"required"`
}
