package fundingstore

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

func TestEnsureDefaultCategories_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	EnsureDefaultCategories(ctx, s, zap.NewNop())
	EnsureDefaultCategories(ctx, s, zap.NewNop())

	categories, err := s.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories() failed: %v", err)
	}
	if len(categories) != len(DefaultCategories) {
		t.Fatalf("seeding is not idempotent: expected %d categories, got %d",
			len(DefaultCategories), len(categories))
	}
}

func TestEnsureDefaultCategories_MatchesNamesCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.GetCategoryByName(ctx, "defi")
	if err != nil {
		t.Fatalf("GetCategoryByName() failed: %v", err)
	}
	if got == nil || got.Name != "DeFi" {
		t.Fatalf("expected DeFi for lowercase lookup, got %+v", got)
	}

	EnsureDefaultCategories(ctx, s, zap.NewNop())

	categories, err := s.GetCategories(ctx)
	if err != nil {
		t.Fatalf("GetCategories() failed: %v", err)
	}
	if len(categories) != len(DefaultCategories) {
		t.Fatalf("expected %d categories, got %d", len(DefaultCategories), len(categories))
	}
}

// failingCategoryStore simulates a backend that errors on lookups.
type failingCategoryStore struct {
	CategoryStore
}

func (failingCategoryStore) GetCategoryByName(context.Context, string) (*funding.Category, error) {
	return nil, errors.New("backend down")
}

func TestEnsureDefaultCategories_SurvivesBackendFailures(t *testing.T) {
	// Must not panic or abort; seeding is best-effort.
	EnsureDefaultCategories(context.Background(), failingCategoryStore{}, zap.NewNop())
}
