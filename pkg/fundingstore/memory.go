package fundingstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// defaultLimit is applied when a list limit is zero or negative.
const defaultLimit = 100

// MemoryStore is the volatile reference implementation of Store. It backs
// each entity with a map keyed by id plus a monotonic counter starting at
// 1; assigned ids are never reused. All operations run under a store
// mutex, so the read-modify-write of UpdateCampaignAmount cannot lose
// updates under concurrent contributions.
//
// List operations materialize the map values, filter, sort, then slice.
// Unique-field lookups are full scans with case-insensitive comparison
// where the contract requires it.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[int64]*funding.User
	categories    map[int64]*funding.Category
	campaigns     map[int64]*funding.Campaign
	contributions map[int64]*funding.Contribution

	nextUserID         int64
	nextCategoryID     int64
	nextCampaignID     int64
	nextContributionID int64
}

// NewMemoryStore creates an empty in-memory store and seeds the six
// default categories. The seed is unconditional: the store always starts
// empty, so no duplicate check is needed.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:              make(map[int64]*funding.User),
		categories:         make(map[int64]*funding.Category),
		campaigns:          make(map[int64]*funding.Campaign),
		contributions:      make(map[int64]*funding.Contribution),
		nextUserID:         1,
		nextCategoryID:     1,
		nextCampaignID:     1,
		nextContributionID: 1,
	}

	for i := range DefaultCategories {
		ins := DefaultCategories[i]
		id := s.nextCategoryID
		s.nextCategoryID++
		s.categories[id] = &funding.Category{ID: id, Name: ins.Name, Color: ins.Color}
	}

	return s
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (*funding.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*funding.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUserByWalletAddress(_ context.Context, address string) (*funding.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.WalletAddress, address) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, ins *funding.InsertUser) (*funding.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextUserID
	s.nextUserID++

	u := &funding.User{
		ID:            id,
		Username:      ins.Username,
		Password:      ins.Password,
		WalletAddress: ins.WalletAddress,
	}
	s.users[id] = u
	return copyUser(u), nil
}

func (s *MemoryStore) GetCategories(_ context.Context) ([]*funding.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*funding.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, copyCategory(c))
	}
	// Insertion order for a map is arbitrary; present categories by id.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id int64) (*funding.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyCategory(s.categories[id]), nil
}

func (s *MemoryStore) GetCategoryByName(_ context.Context, name string) (*funding.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return copyCategory(c), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, ins *funding.InsertCategory) (*funding.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextCategoryID
	s.nextCategoryID++

	c := &funding.Category{ID: id, Name: ins.Name, Color: ins.Color}
	s.categories[id] = c
	return copyCategory(c), nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id int64) (*funding.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyCampaign(s.campaigns[id]), nil
}

func (s *MemoryStore) GetCampaigns(_ context.Context, limit, offset int) ([]*funding.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listCampaigns(func(*funding.Campaign) bool { return true }, limit, offset), nil
}

func (s *MemoryStore) GetCampaignsByCategory(_ context.Context, categoryID int64, limit, offset int) ([]*funding.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listCampaigns(func(c *funding.Campaign) bool { return c.CategoryID == categoryID }, limit, offset), nil
}

func (s *MemoryStore) GetCampaignsByCreator(_ context.Context, creatorID int64) ([]*funding.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listCampaigns(func(c *funding.Campaign) bool { return c.CreatorID == creatorID }, len(s.campaigns), 0), nil
}

// listCampaigns filters, sorts newest-first, then slices. Callers must
// hold at least a read lock.
func (s *MemoryStore) listCampaigns(keep func(*funding.Campaign) bool, limit, offset int) []*funding.Campaign {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	matched := make([]*funding.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		if keep(c) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	if offset >= len(matched) {
		return []*funding.Campaign{}
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*funding.Campaign, 0, end-offset)
	for _, c := range matched[offset:end] {
		out = append(out, copyCampaign(c))
	}
	return out
}

func (s *MemoryStore) CreateCampaign(_ context.Context, ins *funding.InsertCampaign) (*funding.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextCampaignID
	s.nextCampaignID++

	c := &funding.Campaign{
		ID:              id,
		Title:           ins.Title,
		Description:     ins.Description,
		ImageURL:        ins.ImageURL,
		Goal:            ins.Goal,
		CurrentAmount:   0,
		Deadline:        ins.Deadline,
		CreatorID:       ins.CreatorID,
		CategoryID:      ins.CategoryID,
		ContractAddress: ins.ContractAddress,
		CreatedAt:       time.Now(),
	}
	s.campaigns[id] = c
	return copyCampaign(c), nil
}

func (s *MemoryStore) UpdateCampaignAmount(_ context.Context, id int64, delta float64) (*funding.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addCampaignAmount(id, delta), nil
}

// addCampaignAmount applies delta under the already-held write lock.
func (s *MemoryStore) addCampaignAmount(id int64, delta float64) *funding.Campaign {
	c, ok := s.campaigns[id]
	if !ok {
		return nil
	}
	c.CurrentAmount += delta
	return copyCampaign(c)
}

func (s *MemoryStore) GetContribution(_ context.Context, id int64) (*funding.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyContribution(s.contributions[id]), nil
}

func (s *MemoryStore) GetContributionsByUser(_ context.Context, userID int64) ([]*funding.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listContributions(func(c *funding.Contribution) bool { return c.UserID == userID }), nil
}

func (s *MemoryStore) GetContributionsByCampaign(_ context.Context, campaignID int64) ([]*funding.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listContributions(func(c *funding.Contribution) bool { return c.CampaignID == campaignID }), nil
}

func (s *MemoryStore) listContributions(keep func(*funding.Contribution) bool) []*funding.Contribution {
	out := make([]*funding.Contribution, 0)
	for _, c := range s.contributions {
		if keep(c) {
			out = append(out, copyContribution(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
	return out
}

// CreateContribution stores the contribution and accumulates its amount
// into the campaign total. Both steps run under one lock acquisition, so
// the compound operation is atomic with respect to other store calls.
func (s *MemoryStore) CreateContribution(_ context.Context, ins *funding.InsertContribution) (*funding.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextContributionID
	s.nextContributionID++

	c := &funding.Contribution{
		ID:              id,
		Amount:          ins.Amount,
		UserID:          ins.UserID,
		CampaignID:      ins.CampaignID,
		TransactionHash: ins.TransactionHash,
		Timestamp:       time.Now(),
	}
	s.contributions[id] = c

	s.addCampaignAmount(c.CampaignID, c.Amount)

	return copyContribution(c), nil
}

// Reads hand out copies so callers can never mutate store-owned records.

func copyUser(u *funding.User) *funding.User {
	if u == nil {
		return nil
	}
	out := *u
	return &out
}

func copyCategory(c *funding.Category) *funding.Category {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func copyCampaign(c *funding.Campaign) *funding.Campaign {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func copyContribution(c *funding.Contribution) *funding.Contribution {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
