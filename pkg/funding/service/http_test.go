package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blockraise/crowdfund-api/pkg/funding"
	"github.com/blockraise/crowdfund-api/pkg/fundingstore"
)

func newTestRouter(t *testing.T) (chi.Router, *fundingstore.MemoryStore) {
	t.Helper()

	store := fundingstore.NewMemoryStore()
	svc := NewService(store, zap.NewNop())

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, svc, zap.NewNop())
	})
	return r, store
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_ListCategories(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []funding.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories, 6)
	require.Equal(t, "Technology", categories[0].Name)
	require.Equal(t, "#6366f1", categories[0].Color)
}

func TestHTTP_CreateUser_StripsPassword(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/users", map[string]any{
		"username":      "carol",
		"password":      "correct-horse-battery",
		"walletAddress": "0xde709f2102306220921060314715629080e2fb77",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotContains(t, payload, "password")
	require.Equal(t, "carol", payload["username"])

	// Registering the same wallet again conflicts.
	rec = doJSON(t, r, http.MethodPost, "/api/users", map[string]any{
		"username":      "carol2",
		"password":      "correct-horse-battery",
		"walletAddress": "0xDE709F2102306220921060314715629080E2FB77",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var errBody struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.Equal(t, http.StatusConflict, errBody.Code)
	require.Equal(t, "Wallet address already registered", errBody.Message)
}

func TestHTTP_GetUserByWallet(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/users", map[string]any{
		"username":      "dave",
		"password":      "correct-horse-battery",
		"walletAddress": "0x27b1fdb04752bbc536007a920d24acb045561c26",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/users/wallet/0x27B1FDB04752BBC536007A920D24ACB045561C26", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/users/wallet/0x0000000000000000000000000000000000000042", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_CampaignFlow(t *testing.T) {
	r, store := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/users", map[string]any{
		"username":      "erin",
		"password":      "correct-horse-battery",
		"walletAddress": "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user funding.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = doJSON(t, r, http.MethodPost, "/api/campaigns", map[string]any{
		"title":           "Community Mesh Network",
		"description":     "Rooftop antennas",
		"imageUrl":        "https://example.com/mesh.png",
		"goal":            25.0,
		"deadline":        time.Now().AddDate(0, 2, 0).Format(time.RFC3339),
		"creatorId":       user.ID,
		"categoryId":      3,
		"contractAddress": "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var campaign funding.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
	require.Zero(t, campaign.CurrentAmount)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/campaigns/%d", campaign.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/campaigns/9999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/campaigns/not-a-number", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/campaigns?categoryId=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var campaigns []funding.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaigns))
	require.Len(t, campaigns, 1)

	rec = doJSON(t, r, http.MethodGet, "/api/campaigns?limit=banana", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// An explicit zero limit is an empty page, not the default page size.
	rec = doJSON(t, r, http.MethodGet, "/api/campaigns?limit=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var emptyPage []funding.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &emptyPage))
	require.Empty(t, emptyPage)

	// Contribution flow with duplicate rejection.
	hash := "0x" + strings.Repeat("cd", 32)
	rec = doJSON(t, r, http.MethodPost, "/api/contributions", map[string]any{
		"amount":          2.5,
		"userId":          user.ID,
		"campaignId":      campaign.ID,
		"transactionHash": hash,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/contributions", map[string]any{
		"amount":          2.5,
		"userId":          user.ID,
		"campaignId":      campaign.ID,
		"transactionHash": strings.ToUpper(hash[:2]) + hash[2:],
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/contributions/campaign/%d", campaign.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var contributions []funding.Contribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &contributions))
	require.Len(t, contributions, 1)

	rec = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/contributions/user/%d", user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Store-visible total reflects the single accepted contribution.
	updated, err := store.GetCampaign(context.Background(), campaign.ID)
	require.NoError(t, err)
	require.Equal(t, 2.5, updated.CurrentAmount)
}

func TestHTTP_InvalidJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
