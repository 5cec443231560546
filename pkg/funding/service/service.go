// Package service implements the crowdfunding business layer on top of
// the storage contract: payload validation, duplicate pre-checks, and the
// mapping of storage results to service errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/blockraise/crowdfund-api/internal/metrics"
	apperrors "github.com/blockraise/crowdfund-api/pkg/app/errors"
	"github.com/blockraise/crowdfund-api/pkg/funding"
	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
)

// transactionHashLen is the length of a 0x-prefixed 32-byte hash.
const transactionHashLen = 66

var (
	ErrWalletRegistered     = errors.New("wallet address already registered")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrDuplicateTransaction = errors.New("transaction already processed")
	ErrUnknownCreator       = errors.New("unknown creator")
	ErrUnknownCategory      = errors.New("unknown category")
)

// CampaignQuery carries the listing parameters for campaigns. Zero-value
// fields receive their defaults before the store is consulted.
type CampaignQuery struct {
	Limit      int `default:"100"`
	Offset     int `default:"0"`
	CategoryID int64
}

// Service defines the crowdfunding business operations exposed over HTTP.
type Service interface {
	Categories(ctx context.Context) ([]*funding.Category, error)

	Campaign(ctx context.Context, id int64) (*funding.Campaign, error)
	Campaigns(ctx context.Context, q CampaignQuery) ([]*funding.Campaign, error)
	CampaignsByCreator(ctx context.Context, creatorID int64) ([]*funding.Campaign, error)
	CreateCampaign(ctx context.Context, ins *funding.InsertCampaign) (*funding.Campaign, error)

	ContributionsByUser(ctx context.Context, userID int64) ([]*funding.Contribution, error)
	ContributionsByCampaign(ctx context.Context, campaignID int64) ([]*funding.Contribution, error)
	CreateContribution(ctx context.Context, ins *funding.InsertContribution) (*funding.Contribution, error)

	UserByWalletAddress(ctx context.Context, address string) (*funding.User, error)
	CreateUser(ctx context.Context, ins *funding.InsertUser) (*funding.User, error)
}

type fundingService struct {
	store    fundingstore.Store
	logger   *zap.Logger
	validate *validator.Validate
}

// NewService creates the crowdfunding service over the given store.
func NewService(store fundingstore.Store, logger *zap.Logger) Service {
	return &fundingService{
		store:    store,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *fundingService) Categories(ctx context.Context) ([]*funding.Category, error) {
	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *fundingService) Campaign(ctx context.Context, id int64) (*funding.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaign: %w", err)
	}
	if campaign == nil {
		return nil, apperrors.ResourceNotFoundError(nil, "Campaign not found")
	}
	return campaign, nil
}

func (s *fundingService) Campaigns(ctx context.Context, q CampaignQuery) ([]*funding.Campaign, error) {
	if q.CategoryID > 0 {
		campaigns, err := s.store.GetCampaignsByCategory(ctx, q.CategoryID, q.Limit, q.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch campaigns by category: %w", err)
		}
		return campaigns, nil
	}

	campaigns, err := s.store.GetCampaigns(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *fundingService) CampaignsByCreator(ctx context.Context, creatorID int64) ([]*funding.Campaign, error) {
	campaigns, err := s.store.GetCampaignsByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaigns by creator: %w", err)
	}
	return campaigns, nil
}

func (s *fundingService) CreateCampaign(ctx context.Context, ins *funding.InsertCampaign) (*funding.Campaign, error) {
	if err := s.validate.Struct(ins); err != nil {
		return nil, apperrors.BadRequestError(err, validationMessage("Invalid campaign data", err))
	}
	if !common.IsHexAddress(ins.ContractAddress) {
		return nil, apperrors.BadRequestError(nil, "contractAddress must be a hex address")
	}

	creator, err := s.store.GetUser(ctx, ins.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check creator: %w", err)
	}
	if creator == nil {
		return nil, apperrors.BadRequestError(ErrUnknownCreator, "Unknown creator")
	}

	category, err := s.store.GetCategory(ctx, ins.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if category == nil {
		return nil, apperrors.BadRequestError(ErrUnknownCategory, "Unknown category")
	}

	campaign, err := s.store.CreateCampaign(ctx, ins)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	metrics.CampaignsCreated.WithLabelValues(category.Name).Inc()
	return campaign, nil
}

func (s *fundingService) ContributionsByUser(ctx context.Context, userID int64) ([]*funding.Contribution, error) {
	contributions, err := s.store.GetContributionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions by user: %w", err)
	}
	return contributions, nil
}

func (s *fundingService) ContributionsByCampaign(ctx context.Context, campaignID int64) ([]*funding.Contribution, error) {
	contributions, err := s.store.GetContributionsByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contributions by campaign: %w", err)
	}
	return contributions, nil
}

// CreateContribution records a pledge. The transaction hash must not have
// been used for this campaign before (case-insensitive): the client
// obtains it from the chain before submitting, so a repeat means a replay
// of an already-processed transaction.
func (s *fundingService) CreateContribution(ctx context.Context, ins *funding.InsertContribution) (*funding.Contribution, error) {
	if err := s.validate.Struct(ins); err != nil {
		return nil, apperrors.BadRequestError(err, validationMessage("Invalid contribution data", err))
	}
	if !isTransactionHash(ins.TransactionHash) {
		return nil, apperrors.BadRequestError(nil, "transactionHash must be a 0x-prefixed 32-byte hex string")
	}

	campaign, err := s.store.GetCampaign(ctx, ins.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to check campaign: %w", err)
	}
	if campaign == nil {
		return nil, apperrors.ResourceNotFoundError(nil, "Campaign not found")
	}

	contributor, err := s.store.GetUser(ctx, ins.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check contributor: %w", err)
	}
	if contributor == nil {
		return nil, apperrors.ResourceNotFoundError(nil, "User not found")
	}

	existing, err := s.store.GetContributionsByCampaign(ctx, ins.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing contributions: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.TransactionHash, ins.TransactionHash) {
			metrics.DuplicateTransactionsRejected.Inc()
			return nil, apperrors.ConflictError(ErrDuplicateTransaction, "Transaction already processed")
		}
	}

	contribution, err := s.store.CreateContribution(ctx, ins)
	if err != nil {
		if errors.Is(err, fundingstore.ErrDuplicate) {
			metrics.DuplicateTransactionsRejected.Inc()
			return nil, apperrors.ConflictError(ErrDuplicateTransaction, "Transaction already processed")
		}
		return nil, fmt.Errorf("failed to create contribution: %w", err)
	}

	metrics.ContributionsRecorded.Inc()
	metrics.ContributionAmount.Observe(contribution.Amount)
	return contribution, nil
}

func (s *fundingService) UserByWalletAddress(ctx context.Context, address string) (*funding.User, error) {
	user, err := s.store.GetUserByWalletAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user by wallet address: %w", err)
	}
	if user == nil {
		return nil, apperrors.ResourceNotFoundError(nil, "User not found")
	}
	return user, nil
}

func (s *fundingService) CreateUser(ctx context.Context, ins *funding.InsertUser) (*funding.User, error) {
	if err := s.validate.Struct(ins); err != nil {
		return nil, apperrors.BadRequestError(err, validationMessage("Invalid user data", err))
	}
	if !common.IsHexAddress(ins.WalletAddress) {
		return nil, apperrors.BadRequestError(nil, "walletAddress must be a hex address")
	}

	existing, err := s.store.GetUserByWalletAddress(ctx, ins.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet address: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ConflictError(ErrWalletRegistered, "Wallet address already registered")
	}

	existing, err = s.store.GetUserByUsername(ctx, ins.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, apperrors.ConflictError(ErrUsernameTaken, "Username already taken")
	}

	user, err := s.store.CreateUser(ctx, ins)
	if err != nil {
		if errors.Is(err, fundingstore.ErrDuplicate) {
			// A concurrent registration won between the pre-checks and the
			// insert. Re-check the wallet to report the right field.
			winner, lookupErr := s.store.GetUserByWalletAddress(ctx, ins.WalletAddress)
			if lookupErr == nil && winner != nil {
				return nil, apperrors.ConflictError(ErrWalletRegistered, "Wallet address already registered")
			}
			return nil, apperrors.ConflictError(ErrUsernameTaken, "Username already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.UsersRegistered.Inc()
	return user, nil
}

// isTransactionHash reports whether s is a 0x-prefixed 32-byte hex string.
func isTransactionHash(s string) bool {
	if len(s) != transactionHashLen {
		return false
	}
	raw, err := hexutil.Decode(s)
	return err == nil && len(raw) == common.HashLength
}

// validationMessage flattens validator errors into a single client-facing
// message listing the offending fields.
func validationMessage(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return prefix
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return prefix + ": " + strings.Join(fields, ", ")
}
