package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/blockraise/crowdfund-api/pkg/app/errors"
	"github.com/blockraise/crowdfund-api/pkg/funding"
)

const serviceName = "FundingService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the funding Service.
// It logs method entry/exit, duration and errors. Client-caused errors
// (bad payloads, not found, conflicts) are logged at Info level; only
// internal faults are logged as errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// finish logs the outcome of a service call. It is meant to be invoked
// from a defer, with err bound to the method's named return.
func (ls *logService) finish(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	)

	if err == nil {
		ls.logger.Info(method+" completed", fields...)
		return
	}

	fields = append(fields, zap.Error(err))
	if apperrors.IsInternalError(err) {
		ls.logger.Error(method+" failed", fields...)
	} else {
		ls.logger.Info(method+" rejected", fields...)
	}
}

func (ls *logService) Categories(ctx context.Context) (categories []*funding.Category, err error) {
	start := time.Now()
	defer func() { ls.finish("Categories", start, err) }()

	return ls.svc.Categories(ctx)
}

func (ls *logService) Campaign(ctx context.Context, id int64) (campaign *funding.Campaign, err error) {
	start := time.Now()
	defer func() { ls.finish("Campaign", start, err, zap.Int64("campaign_id", id)) }()

	return ls.svc.Campaign(ctx, id)
}

func (ls *logService) Campaigns(ctx context.Context, q CampaignQuery) (campaigns []*funding.Campaign, err error) {
	start := time.Now()
	defer func() {
		ls.finish("Campaigns", start, err,
			zap.Int("limit", q.Limit),
			zap.Int("offset", q.Offset),
			zap.Int64("category_id", q.CategoryID),
			zap.Int("returned", len(campaigns)),
		)
	}()

	return ls.svc.Campaigns(ctx, q)
}

func (ls *logService) CampaignsByCreator(ctx context.Context, creatorID int64) (campaigns []*funding.Campaign, err error) {
	start := time.Now()
	defer func() {
		ls.finish("CampaignsByCreator", start, err,
			zap.Int64("creator_id", creatorID),
			zap.Int("returned", len(campaigns)),
		)
	}()

	return ls.svc.CampaignsByCreator(ctx, creatorID)
}

func (ls *logService) CreateCampaign(ctx context.Context, ins *funding.InsertCampaign) (campaign *funding.Campaign, err error) {
	start := time.Now()
	ls.logger.Info("CreateCampaign started",
		zap.String("service", serviceName),
		zap.String("method", "CreateCampaign"),
		zap.String("title", ins.Title),
		zap.Int64("creator_id", ins.CreatorID),
		zap.Int64("category_id", ins.CategoryID),
		zap.Float64("goal", ins.Goal),
	)
	defer func() {
		fields := []zap.Field{zap.String("title", ins.Title)}
		if campaign != nil {
			fields = append(fields, zap.Int64("campaign_id", campaign.ID))
		}
		ls.finish("CreateCampaign", start, err, fields...)
	}()

	return ls.svc.CreateCampaign(ctx, ins)
}

func (ls *logService) ContributionsByUser(ctx context.Context, userID int64) (contributions []*funding.Contribution, err error) {
	start := time.Now()
	defer func() {
		ls.finish("ContributionsByUser", start, err,
			zap.Int64("user_id", userID),
			zap.Int("returned", len(contributions)),
		)
	}()

	return ls.svc.ContributionsByUser(ctx, userID)
}

func (ls *logService) ContributionsByCampaign(ctx context.Context, campaignID int64) (contributions []*funding.Contribution, err error) {
	start := time.Now()
	defer func() {
		ls.finish("ContributionsByCampaign", start, err,
			zap.Int64("campaign_id", campaignID),
			zap.Int("returned", len(contributions)),
		)
	}()

	return ls.svc.ContributionsByCampaign(ctx, campaignID)
}

func (ls *logService) CreateContribution(ctx context.Context, ins *funding.InsertContribution) (contribution *funding.Contribution, err error) {
	start := time.Now()
	ls.logger.Info("CreateContribution started",
		zap.String("service", serviceName),
		zap.String("method", "CreateContribution"),
		zap.Int64("campaign_id", ins.CampaignID),
		zap.Int64("user_id", ins.UserID),
		zap.Float64("amount", ins.Amount),
		zap.String("transaction_hash", ins.TransactionHash),
	)
	defer func() {
		fields := []zap.Field{
			zap.Int64("campaign_id", ins.CampaignID),
			zap.Int64("user_id", ins.UserID),
		}
		if contribution != nil {
			fields = append(fields, zap.Int64("contribution_id", contribution.ID))
		}
		ls.finish("CreateContribution", start, err, fields...)
	}()

	return ls.svc.CreateContribution(ctx, ins)
}

func (ls *logService) UserByWalletAddress(ctx context.Context, address string) (user *funding.User, err error) {
	start := time.Now()
	defer func() { ls.finish("UserByWalletAddress", start, err, zap.String("wallet_address", address)) }()

	return ls.svc.UserByWalletAddress(ctx, address)
}

func (ls *logService) CreateUser(ctx context.Context, ins *funding.InsertUser) (user *funding.User, err error) {
	start := time.Now()
	ls.logger.Info("CreateUser started",
		zap.String("service", serviceName),
		zap.String("method", "CreateUser"),
		zap.String("username", ins.Username),
		zap.String("wallet_address", ins.WalletAddress),
	)
	defer func() {
		fields := []zap.Field{zap.String("username", ins.Username)}
		if user != nil {
			fields = append(fields, zap.Int64("user_id", user.ID))
		}
		ls.finish("CreateUser", start, err, fields...)
	}()

	return ls.svc.CreateUser(ctx, ins)
}
