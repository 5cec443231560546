package fundingstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates the Postgres implementation of the funding store.
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func (s *pgStore) GetUser(ctx context.Context, id int64) (*funding.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(dao), nil
}

func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*funding.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().Model(dao).Where("username = ?", username).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return toUser(dao), nil
}

func (s *pgStore) GetUserByWalletAddress(ctx context.Context, address string) (*funding.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().Model(dao).Where("LOWER(wallet_address) = LOWER(?)", address).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by wallet address: %w", err)
	}
	return toUser(dao), nil
}

func (s *pgStore) CreateUser(ctx context.Context, ins *funding.InsertUser) (*funding.User, error) {
	dao := &UserDao{
		Username:      ins.Username,
		Password:      ins.Password,
		WalletAddress: ins.WalletAddress,
	}
	_, err := s.db.NewInsert().Model(dao).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return toUser(dao), nil
}

func (s *pgStore) GetCategories(ctx context.Context) ([]*funding.Category, error) {
	var daos []CategoryDao
	err := s.db.NewSelect().Model(&daos).Order("id ASC").Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]*funding.Category, len(daos))
	for i := range daos {
		out[i] = toCategory(&daos[i])
	}
	return out, nil
}

func (s *pgStore) GetCategory(ctx context.Context, id int64) (*funding.Category, error) {
	dao := new(CategoryDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return toCategory(dao), nil
}

func (s *pgStore) GetCategoryByName(ctx context.Context, name string) (*funding.Category, error) {
	dao := new(CategoryDao)
	err := s.db.NewSelect().Model(dao).Where("LOWER(name) = LOWER(?)", name).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return toCategory(dao), nil
}

func (s *pgStore) CreateCategory(ctx context.Context, ins *funding.InsertCategory) (*funding.Category, error) {
	dao := &CategoryDao{Name: ins.Name, Color: ins.Color}
	_, err := s.db.NewInsert().Model(dao).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create category: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return toCategory(dao), nil
}

func (s *pgStore) GetCampaign(ctx context.Context, id int64) (*funding.Campaign, error) {
	dao := new(CampaignDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return toCampaign(dao), nil
}

func (s *pgStore) GetCampaigns(ctx context.Context, limit, offset int) ([]*funding.Campaign, error) {
	var daos []CampaignDao
	err := s.campaignPage(limit, offset, &daos).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return toCampaigns(daos), nil
}

func (s *pgStore) GetCampaignsByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]*funding.Campaign, error) {
	var daos []CampaignDao
	err := s.campaignPage(limit, offset, &daos).
		Where("category_id = ?", categoryID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns by category: %w", err)
	}
	return toCampaigns(daos), nil
}

func (s *pgStore) GetCampaignsByCreator(ctx context.Context, creatorID int64) ([]*funding.Campaign, error) {
	var daos []CampaignDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns by creator: %w", err)
	}
	return toCampaigns(daos), nil
}

// campaignPage builds the shared newest-first paged select.
func (s *pgStore) campaignPage(limit, offset int, daos *[]CampaignDao) *bun.SelectQuery {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.db.NewSelect().
		Model(daos).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Offset(offset)
}

// CreateCampaign assigns the id, stamps created_at with the database
// clock, and starts current_amount at zero regardless of caller input.
func (s *pgStore) CreateCampaign(ctx context.Context, ins *funding.InsertCampaign) (*funding.Campaign, error) {
	dao := &CampaignDao{
		Title:           ins.Title,
		Description:     ins.Description,
		ImageURL:        ins.ImageURL,
		Goal:            ins.Goal,
		CurrentAmount:   0,
		Deadline:        ins.Deadline,
		CreatorID:       ins.CreatorID,
		CategoryID:      ins.CategoryID,
		ContractAddress: ins.ContractAddress,
	}
	_, err := s.db.NewInsert().Model(dao).Returning("*").Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return toCampaign(dao), nil
}

// UpdateCampaignAmount applies the delta as a single atomic increment
// statement, so concurrent contributions to the same campaign cannot lose
// updates.
func (s *pgStore) UpdateCampaignAmount(ctx context.Context, id int64, delta float64) (*funding.Campaign, error) {
	return updateCampaignAmount(ctx, s.db, id, delta)
}

func updateCampaignAmount(ctx context.Context, db bun.IDB, id int64, delta float64) (*funding.Campaign, error) {
	dao := new(CampaignDao)
	res, err := db.NewUpdate().
		Model(dao).
		Set("current_amount = current_amount + ?", delta).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign amount: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return toCampaign(dao), nil
}

func (s *pgStore) GetContribution(ctx context.Context, id int64) (*funding.Contribution, error) {
	dao := new(ContributionDao)
	err := s.db.NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	return toContribution(dao), nil
}

func (s *pgStore) GetContributionsByUser(ctx context.Context, userID int64) ([]*funding.Contribution, error) {
	var daos []ContributionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		Order("timestamp DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions by user: %w", err)
	}
	return toContributions(daos), nil
}

func (s *pgStore) GetContributionsByCampaign(ctx context.Context, campaignID int64) ([]*funding.Contribution, error) {
	var daos []ContributionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("campaign_id = ?", campaignID).
		Order("timestamp DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions by campaign: %w", err)
	}
	return toContributions(daos), nil
}

// CreateContribution inserts the contribution row and accumulates its
// amount into the campaign total inside one transaction, so a failure on
// either side leaves no half-applied state.
func (s *pgStore) CreateContribution(ctx context.Context, ins *funding.InsertContribution) (*funding.Contribution, error) {
	dao := &ContributionDao{
		Amount:          ins.Amount,
		UserID:          ins.UserID,
		CampaignID:      ins.CampaignID,
		TransactionHash: ins.TransactionHash,
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(dao).Returning("*").Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create contribution: %w", ErrDuplicate)
			}
			return fmt.Errorf("failed to create contribution: %w", err)
		}

		updated, err := updateCampaignAmount(ctx, tx, dao.CampaignID, dao.Amount)
		if err != nil {
			return err
		}
		if updated == nil {
			// The FK guarantees the campaign existed at insert time; a
			// missing row here means it vanished mid-transaction.
			return fmt.Errorf("campaign %d not found during contribution accumulation", dao.CampaignID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toContribution(dao), nil
}
