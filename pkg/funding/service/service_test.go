package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/blockraise/crowdfund-api/pkg/app/errors"
	"github.com/blockraise/crowdfund-api/pkg/funding"
	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
)

// The in-memory store is the reference implementation of the storage
// contract, so the service tests run against it directly.
func newTestService(t *testing.T) (context.Context, Service, *fundingstore.MemoryStore) {
	t.Helper()
	store := fundingstore.NewMemoryStore()
	return context.Background(), NewService(store, zap.NewNop()), store
}

func insertUser(n int) *funding.InsertUser {
	return &funding.InsertUser{
		Username:      fmt.Sprintf("bob-%d", n),
		Password:      "hunter2hunter2",
		WalletAddress: fmt.Sprintf("0x52908400098527886E0F7030069857D2E4169E%02x", n),
	}
}

func insertCampaign(creatorID, categoryID int64) *funding.InsertCampaign {
	return &funding.InsertCampaign{
		Title:           "Hardware Wallet",
		Description:     "Open source signer",
		ImageURL:        "https://example.com/w.png",
		Goal:            10,
		Deadline:        time.Now().AddDate(0, 1, 0),
		CreatorID:       creatorID,
		CategoryID:      categoryID,
		ContractAddress: "0x8617E340B3D01FA5F11F306F4090FD50E238070D",
	}
}

func insertContribution(userID, campaignID int64) *funding.InsertContribution {
	return &funding.InsertContribution{
		Amount:          1.25,
		UserID:          userID,
		CampaignID:      campaignID,
		TransactionHash: "0x" + strings.Repeat("ab", 32),
	}
}

func TestService_CreateUser_Validation(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	_, err := svc.CreateUser(ctx, &funding.InsertUser{
		Username:      "x",
		Password:      "short",
		WalletAddress: "",
	})
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected data error for invalid payload, got %v", err)
	}

	ins := insertUser(1)
	ins.WalletAddress = "not-an-address"
	_, err = svc.CreateUser(ctx, ins)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected data error for malformed wallet address, got %v", err)
	}
}

func TestService_CreateUser_Conflicts(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	created, err := svc.CreateUser(ctx, insertUser(1))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	// Same wallet, different casing.
	dup := insertUser(2)
	dup.WalletAddress = strings.ToLower(insertUser(1).WalletAddress)
	_, err = svc.CreateUser(ctx, dup)
	if !errors.Is(err, ErrWalletRegistered) {
		t.Fatalf("expected ErrWalletRegistered, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict category, got %v", err)
	}

	dup = insertUser(3)
	dup.Username = "bob-1"
	_, err = svc.CreateUser(ctx, dup)
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

// usernameRaceStore simulates another request winning the username between
// the pre-check and the insert: the lookup sees nothing, the insert hits
// the unique index.
type usernameRaceStore struct {
	fundingstore.Store
}

func (s *usernameRaceStore) GetUserByUsername(context.Context, string) (*funding.User, error) {
	return nil, nil
}

func (s *usernameRaceStore) CreateUser(context.Context, *funding.InsertUser) (*funding.User, error) {
	return nil, fundingstore.ErrDuplicate
}

// walletRaceStore simulates a wallet registration winning the race: the
// first lookup misses, the insert fails, and the re-check finds the winner.
type walletRaceStore struct {
	fundingstore.Store
	walletLookups int
}

func (s *walletRaceStore) GetUserByWalletAddress(ctx context.Context, address string) (*funding.User, error) {
	s.walletLookups++
	if s.walletLookups == 1 {
		return nil, nil
	}
	return s.Store.GetUserByWalletAddress(ctx, address)
}

func (s *walletRaceStore) CreateUser(context.Context, *funding.InsertUser) (*funding.User, error) {
	return nil, fundingstore.ErrDuplicate
}

func TestService_CreateUser_InsertConflictNamesField(t *testing.T) {
	ctx := context.Background()

	// Username taken concurrently: the store rejects the insert even though
	// both pre-checks passed, and the conflict must name the username.
	svc := NewService(&usernameRaceStore{Store: fundingstore.NewMemoryStore()}, zap.NewNop())
	_, err := svc.CreateUser(ctx, insertUser(1))
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken for racing username, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict category, got %v", err)
	}

	// Wallet registered concurrently: the re-check finds the winner and the
	// conflict must name the wallet address.
	mem := fundingstore.NewMemoryStore()
	if _, err := mem.CreateUser(ctx, insertUser(2)); err != nil {
		t.Fatalf("CreateUser() seed failed: %v", err)
	}
	svc = NewService(&walletRaceStore{Store: mem}, zap.NewNop())

	dup := insertUser(2)
	dup.Username = "bob-unclaimed"
	_, err = svc.CreateUser(ctx, dup)
	if !errors.Is(err, ErrWalletRegistered) {
		t.Fatalf("expected ErrWalletRegistered for racing wallet, got %v", err)
	}
}

func TestService_UserByWalletAddress_NotFound(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	_, err := svc.UserByWalletAddress(ctx, "0x0000000000000000000000000000000000000099")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_CreateCampaign_UnknownReferences(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	user, err := svc.CreateUser(ctx, insertUser(1))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	_, err = svc.CreateCampaign(ctx, insertCampaign(999, 1))
	if !errors.Is(err, ErrUnknownCreator) {
		t.Fatalf("expected ErrUnknownCreator, got %v", err)
	}

	_, err = svc.CreateCampaign(ctx, insertCampaign(user.ID, 999))
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}

	campaign, err := svc.CreateCampaign(ctx, insertCampaign(user.ID, 1))
	if err != nil {
		t.Fatalf("CreateCampaign() failed: %v", err)
	}
	if campaign.CurrentAmount != 0 {
		t.Fatalf("new campaign must start at zero, got %f", campaign.CurrentAmount)
	}
}

func TestService_Campaigns_CategoryFilter(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	user, err := svc.CreateUser(ctx, insertUser(1))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	for _, categoryID := range []int64{1, 1, 2} {
		if _, err := svc.CreateCampaign(ctx, insertCampaign(user.ID, categoryID)); err != nil {
			t.Fatalf("CreateCampaign() failed: %v", err)
		}
	}

	all, err := svc.Campaigns(ctx, CampaignQuery{Limit: 100})
	if err != nil {
		t.Fatalf("Campaigns() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 campaigns, got %d", len(all))
	}

	filtered, err := svc.Campaigns(ctx, CampaignQuery{Limit: 100, CategoryID: 2})
	if err != nil {
		t.Fatalf("Campaigns() filtered failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].CategoryID != 2 {
		t.Fatalf("unexpected filter result: %+v", filtered)
	}
}

func TestService_CreateContribution_Checks(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	user, err := svc.CreateUser(ctx, insertUser(1))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	campaign, err := svc.CreateCampaign(ctx, insertCampaign(user.ID, 1))
	if err != nil {
		t.Fatalf("CreateCampaign() failed: %v", err)
	}

	// Malformed transaction hash.
	bad := insertContribution(user.ID, campaign.ID)
	bad.TransactionHash = "0x1234"
	if _, err := svc.CreateContribution(ctx, bad); !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected data error for short hash, got %v", err)
	}

	// Unknown campaign.
	missing := insertContribution(user.ID, 999)
	if _, err := svc.CreateContribution(ctx, missing); !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found for unknown campaign, got %v", err)
	}

	// Unknown contributor.
	missing = insertContribution(999, campaign.ID)
	if _, err := svc.CreateContribution(ctx, missing); !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}

	created, err := svc.CreateContribution(ctx, insertContribution(user.ID, campaign.ID))
	if err != nil {
		t.Fatalf("CreateContribution() failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned contribution id")
	}

	updated, err := svc.Campaign(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("Campaign() failed: %v", err)
	}
	if updated.CurrentAmount != 1.25 {
		t.Fatalf("expected total 1.25, got %f", updated.CurrentAmount)
	}
}

func TestService_CreateContribution_DuplicateTransaction(t *testing.T) {
	ctx, svc, _ := newTestService(t)

	user, err := svc.CreateUser(ctx, insertUser(1))
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	campaign, err := svc.CreateCampaign(ctx, insertCampaign(user.ID, 1))
	if err != nil {
		t.Fatalf("CreateCampaign() failed: %v", err)
	}

	if _, err := svc.CreateContribution(ctx, insertContribution(user.ID, campaign.ID)); err != nil {
		t.Fatalf("CreateContribution() failed: %v", err)
	}

	// Replay with different hex casing is still the same transaction.
	dup := insertContribution(user.ID, campaign.ID)
	dup.TransactionHash = "0x" + strings.Repeat("AB", 32)
	_, err = svc.CreateContribution(ctx, dup)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
	if !apperrors.Is(err, apperrors.CategoryDataConflict) {
		t.Fatalf("expected conflict category, got %v", err)
	}

	updated, err := svc.Campaign(ctx, campaign.ID)
	if err != nil {
		t.Fatalf("Campaign() failed: %v", err)
	}
	if updated.CurrentAmount != 1.25 {
		t.Fatalf("duplicate must not change total: expected 1.25, got %f", updated.CurrentAmount)
	}
}

func TestIsTransactionHash(t *testing.T) {
	valid := "0x" + strings.Repeat("0f", 32)
	if !isTransactionHash(valid) {
		t.Fatalf("expected %q to be valid", valid)
	}

	for _, bad := range []string{
		"",
		"0x1234",
		strings.Repeat("ab", 33),
		"0x" + strings.Repeat("zz", 32),
	} {
		if isTransactionHash(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
