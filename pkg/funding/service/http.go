package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/blockraise/crowdfund-api/pkg/app/errors"
	apphttp "github.com/blockraise/crowdfund-api/pkg/app/http"
	"github.com/blockraise/crowdfund-api/pkg/funding"
)

// maxBodySize bounds request payloads at 1MB.
const maxBodySize = 1 << 20

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the crowdfunding endpoints on the given chi router.
// The router is expected to be mounted under /api.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Get("/categories", apphttp.HandleError(h.listCategories))

	r.Get("/campaigns", apphttp.HandleError(h.listCampaigns))
	r.Get("/campaigns/{id}", apphttp.HandleError(h.getCampaign))
	r.Get("/campaigns/creator/{creatorId}", apphttp.HandleError(h.listCampaignsByCreator))
	r.Post("/campaigns", apphttp.HandleError(h.createCampaign))

	r.Get("/contributions/user/{userId}", apphttp.HandleError(h.listContributionsByUser))
	r.Get("/contributions/campaign/{campaignId}", apphttp.HandleError(h.listContributionsByCampaign))
	r.Post("/contributions", apphttp.HandleError(h.createContribution))

	r.Get("/users/wallet/{address}", apphttp.HandleError(h.getUserByWallet))
	r.Post("/users", apphttp.HandleError(h.createUser))
}

func (h *HTTP) listCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, categories)
	return nil
}

func (h *HTTP) listCampaigns(w http.ResponseWriter, r *http.Request) error {
	q, err := campaignQueryFromRequest(r)
	if err != nil {
		return err
	}

	// The default limit is non-zero, so a zero here means the client asked
	// for limit=0 explicitly: an empty page, not the server-side default.
	if q.Limit == 0 {
		apphttp.WriteJSON(w, http.StatusOK, []*funding.Campaign{})
		return nil
	}

	campaigns, err := h.service.Campaigns(r.Context(), q)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, campaigns)
	return nil
}

func (h *HTTP) getCampaign(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	campaign, err := h.service.Campaign(r.Context(), id)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, campaign)
	return nil
}

func (h *HTTP) listCampaignsByCreator(w http.ResponseWriter, r *http.Request) error {
	creatorID, err := pathID(r, "creatorId")
	if err != nil {
		return err
	}

	campaigns, err := h.service.CampaignsByCreator(r.Context(), creatorID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, campaigns)
	return nil
}

func (h *HTTP) createCampaign(w http.ResponseWriter, r *http.Request) error {
	var ins funding.InsertCampaign
	if err := decodeBody(r, &ins); err != nil {
		return err
	}

	campaign, err := h.service.CreateCampaign(r.Context(), &ins)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, campaign)
	return nil
}

func (h *HTTP) listContributionsByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := pathID(r, "userId")
	if err != nil {
		return err
	}

	contributions, err := h.service.ContributionsByUser(r.Context(), userID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, contributions)
	return nil
}

func (h *HTTP) listContributionsByCampaign(w http.ResponseWriter, r *http.Request) error {
	campaignID, err := pathID(r, "campaignId")
	if err != nil {
		return err
	}

	contributions, err := h.service.ContributionsByCampaign(r.Context(), campaignID)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, contributions)
	return nil
}

func (h *HTTP) createContribution(w http.ResponseWriter, r *http.Request) error {
	var ins funding.InsertContribution
	if err := decodeBody(r, &ins); err != nil {
		return err
	}

	contribution, err := h.service.CreateContribution(r.Context(), &ins)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, contribution)
	return nil
}

func (h *HTTP) getUserByWallet(w http.ResponseWriter, r *http.Request) error {
	address := chi.URLParam(r, "address")
	if address == "" {
		return apperrors.BadRequestError(nil, "wallet address required")
	}

	user, err := h.service.UserByWalletAddress(r.Context(), address)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, user)
	return nil
}

func (h *HTTP) createUser(w http.ResponseWriter, r *http.Request) error {
	var ins funding.InsertUser
	if err := decodeBody(r, &ins); err != nil {
		return err
	}

	user, err := h.service.CreateUser(r.Context(), &ins)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, user)
	return nil
}

// campaignQueryFromRequest parses limit, offset and categoryId query
// parameters, filling in defaults for whatever the client omitted.
func campaignQueryFromRequest(r *http.Request) (CampaignQuery, error) {
	var q CampaignQuery
	if err := defaults.Set(&q); err != nil {
		return q, apperrors.GeneralError(err)
	}

	values := r.URL.Query()
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return q, apperrors.BadRequestError(err, "limit must be a non-negative integer")
		}
		q.Limit = limit
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return q, apperrors.BadRequestError(err, "offset must be a non-negative integer")
		}
		q.Offset = offset
	}
	if raw := values.Get("categoryId"); raw != "" {
		categoryID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return q, apperrors.BadRequestError(err, "categoryId must be an integer")
		}
		q.CategoryID = categoryID
	}

	return q, nil
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.BadRequestError(err, "invalid "+name)
	}
	return id, nil
}

// decodeBody reads and unmarshals a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}
