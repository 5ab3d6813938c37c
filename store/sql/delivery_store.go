package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/uptrace/bun"
)

const (
	defaultDeliveryPerPage = 50
	maxDeliveryPerPage     = 200
)

// DeliveryStore is the append-and-update ledger of outbound deliveries.
type DeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*deliveryRecord]
	now  func() time.Time
}

func NewDeliveryStore(db *bun.DB) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*deliveryRecord](db, deliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid delivery repository wiring: %w", err)
		}
	}
	return &DeliveryStore{db: db, repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *DeliveryStore) Create(ctx context.Context, in core.CreateDeliveryInput) (core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	in.ID = strings.TrimSpace(in.ID)
	in.SiteID = strings.TrimSpace(in.SiteID)
	in.EndpointID = strings.TrimSpace(in.EndpointID)
	in.EventType = strings.TrimSpace(in.EventType)
	if in.ID == "" || in.SiteID == "" || in.EndpointID == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery id, site id and endpoint id are required")
	}
	if in.EventType == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: event type is required")
	}

	now := s.now()
	record := &deliveryRecord{
		ID:             in.ID,
		SiteID:         in.SiteID,
		EndpointID:     in.EndpointID,
		SubscriptionID: cloneString(in.SubscriptionID),
		EventType:      in.EventType,
		Payload:        copyAnyMap(in.Payload),
		Status:         string(core.DeliveryStatusPending),
		AttemptCount:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.DeliveryRecord{}, err
	}
	return record.toDomain(), nil
}

// Update overwrites the attempt columns of one row in a single statement.
func (s *DeliveryStore) Update(ctx context.Context, id string, in core.UpdateDeliveryInput) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: delivery id is required")
	}
	if strings.TrimSpace(string(in.Status)) == "" {
		return fmt.Errorf("sqlstore: delivery status is required")
	}
	lastAttemptAt := in.LastAttemptAt.UTC()
	if in.LastAttemptAt.IsZero() {
		lastAttemptAt = s.now()
	}

	query := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(in.Status)).
		Set("attempt_count = ?", in.AttemptCount).
		Set("last_attempt_at = ?", lastAttemptAt)
	// no response (transport error): keep the last recorded status
	if in.ResponseStatus != nil {
		query = query.Set("response_status = ?", *in.ResponseStatus)
	}
	res, err := query.
		Set("response_body = ?", in.ResponseBody).
		Set("delivered_at = ?", cloneTime(in.DeliveredAt)).
		Set("updated_at = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, rowsErr := res.RowsAffected(); rowsErr == nil && affected == 0 {
		return deliveryNotFound(id)
	}
	return nil
}

func (s *DeliveryStore) Get(ctx context.Context, id string) (core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	record := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DeliveryRecord{}, deliveryNotFound(id)
		}
		return core.DeliveryRecord{}, err
	}
	return record.toDomain(), nil
}

// List pages deliveries newest first. SiteID is required.
func (s *DeliveryStore) List(ctx context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryPage{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	siteID := strings.TrimSpace(filter.SiteID)
	if siteID == "" {
		return core.DeliveryPage{}, fmt.Errorf("sqlstore: site id is required")
	}
	page, perPage := normalizePage(filter.Page, filter.PerPage)

	criteria := []repository.SelectCriteria{
		repository.SelectBy("site_id", "=", siteID),
	}
	if endpointID := strings.TrimSpace(filter.EndpointID); endpointID != "" {
		criteria = append(criteria, repository.SelectBy("endpoint_id", "=", endpointID))
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		criteria = append(criteria, repository.SelectBy("status", "=", status))
	}
	if filter.From != nil {
		criteria = append(criteria, repository.SelectByTimetz("created_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		criteria = append(criteria, repository.SelectByTimetz("created_at", "<=", filter.To.UTC()))
	}
	criteria = append(criteria,
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, (page-1)*perPage),
	)

	records, total, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return core.DeliveryPage{}, err
	}
	items := make([]core.DeliveryRecord, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.DeliveryPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: page*perPage < total,
	}, nil
}

func normalizePage(page int, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultDeliveryPerPage
	}
	if perPage > maxDeliveryPerPage {
		perPage = maxDeliveryPerPage
	}
	return page, perPage
}

func deliveryNotFound(id string) error {
	return core.NotFoundError(
		fmt.Errorf("sqlstore: delivery %q: %w", id, core.ErrDeliveryNotFound),
		"delivery not found",
		core.ErrorDeliveryNotFound,
	)
}
