package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type EndpointStore struct {
	db   *bun.DB
	repo repository.Repository[*endpointRecord]
}

func NewEndpointStore(db *bun.DB) (*EndpointStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*endpointRecord](db, endpointHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid endpoint repository wiring: %w", err)
		}
	}
	return &EndpointStore{db: db, repo: repo}, nil
}

// Create registers an endpoint. A blank handshake status is stored as "none".
func (s *EndpointStore) Create(ctx context.Context, endpoint core.Endpoint) (core.Endpoint, error) {
	if s == nil || s.db == nil {
		return core.Endpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	endpoint.SiteID = strings.TrimSpace(endpoint.SiteID)
	endpoint.TargetURL = strings.TrimSpace(endpoint.TargetURL)
	if endpoint.SiteID == "" || endpoint.TargetURL == "" {
		return core.Endpoint{}, fmt.Errorf("sqlstore: site id and target url are required")
	}
	if strings.TrimSpace(endpoint.ID) == "" {
		endpoint.ID = uuid.NewString()
	}
	status := strings.ToLower(strings.TrimSpace(string(endpoint.HandshakeStatus)))
	if status == "" {
		status = string(core.HandshakeStatusNone)
	}
	now := time.Now().UTC()
	record := &endpointRecord{
		ID:              strings.TrimSpace(endpoint.ID),
		SiteID:          endpoint.SiteID,
		Name:            strings.TrimSpace(endpoint.Name),
		Description:     strings.TrimSpace(endpoint.Description),
		TargetURL:       endpoint.TargetURL,
		Secret:          cloneString(endpoint.Secret),
		IsActive:        endpoint.IsActive,
		HandshakeStatus: status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Endpoint{}, err
	}
	return record.toDomain(), nil
}

// ListActiveEndpoints returns active endpoints whose handshake still allows
// delivery. Eligibility is decided in SQL.
func (s *EndpointStore) ListActiveEndpoints(ctx context.Context, siteID string) ([]core.Endpoint, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return nil, fmt.Errorf("sqlstore: site id is required")
	}
	eligible := make([]string, 0, len(core.EligibleHandshakeStatuses()))
	for _, status := range core.EligibleHandshakeStatuses() {
		eligible = append(eligible, string(status))
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("site_id", "=", siteID),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.is_active = ?", true).
				Where("LOWER(TRIM(?TableAlias.handshake_status)) IN (?)", bun.In(eligible))
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Endpoint, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}
