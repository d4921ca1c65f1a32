package business

import (
	"context"
	"errors"
	"strings"
	"time"

	"chamber122/pkg/db/option"
	"chamber122/pkg/db/pagination"
	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"
	"chamber122/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrBusinessNotFound = errors.New("business not found")

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	repo      repository.Repository[Business]
	publisher *notification.Publisher
	log       *zap.Logger
	now       func() time.Time
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Publisher *notification.Publisher `optional:"true"`
	Logger    *zap.Logger             `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:        p.DB,
		node:      p.Node,
		repo:      repository.ProvideStore[Business](p.DB),
		publisher: p.Publisher,
		log:       log,
		now:       time.Now,
	}
}

func notFound() error {
	return errutil.NotFound("business not found", ErrBusinessNotFound)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Business, error) {
	if id == "" {
		return nil, notFound()
	}
	b, err := s.repo.FindOne(ctx, &Business{ID: id})
	if err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to load business", zap.String("business_id", id), zap.Error(err))
		return nil, errutil.Internal("failed to load business", err)
	}
	if b == nil {
		return nil, notFound()
	}
	return b, nil
}

// GetByOwner returns the business owned by userID, or nil when the user has
// none. A missing business is not an error.
func (s *Service) GetByOwner(ctx context.Context, userID string) (*Business, error) {
	if userID == "" {
		return nil, nil
	}
	b, err := s.repo.FindOne(ctx, &Business{OwnerID: userID})
	if err != nil {
		return nil, errutil.Internal("failed to load business", err)
	}
	return b, nil
}

// CreateForOwner creates the pending business every signup gets. tx may be
// nil to run outside a transaction.
func (s *Service) CreateForOwner(ctx context.Context, tx *gorm.DB, ownerID, name string) (*Business, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errutil.ValidationFailed("business name is required", nil)
	}
	b := &Business{
		ID:             s.node.Generate().String(),
		OwnerID:        ownerID,
		Name:           name,
		Slug:           slug.Make(name),
		IsActive:       true,
		ApprovalStatus: ApprovalPending,
	}
	if err := s.repo.WithTrx(tx).Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListPublic pages through active, approved businesses, newest first.
func (s *Service) ListPublic(ctx context.Context, page pagination.Pagination, category string) ([]*Business, *pagination.PageInfo, error) {
	query := &Business{IsActive: true, ApprovalStatus: ApprovalApproved}
	if category != "" {
		query.Category = category
	}
	items, err := s.repo.Find(ctx, query,
		option.WithSortBy(option.QuerySortBy{OrderBy: "desc"}),
		option.ApplyPagination(page),
	)
	if err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to list businesses", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list businesses", err)
	}
	items, info := pagination.BuildCursorPageInfo(items, page.Limit, func(b *Business) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano), ID: b.ID}
	})
	return items, info, nil
}

// UpdateOwn applies the non-nil fields of req to the caller's business.
// Approval state is not editable here.
func (s *Service) UpdateOwn(ctx context.Context, ownerID string, req UpdateRequest) (*Business, error) {
	b, err := s.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound()
	}

	updates := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errutil.ValidationFailed("business name is required", nil)
		}
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	set("description", req.Description)
	set("industry", req.Industry)
	set("category", req.Category)
	set("city", req.City)
	set("area", req.Area)
	set("phone", req.Phone)
	set("whatsapp", req.Whatsapp)
	set("website", req.Website)
	set("instagram", req.Instagram)
	set("logo_url", req.LogoURL)

	if len(updates) == 0 {
		return b, nil
	}
	if err := s.repo.Update(ctx, b.ID, updates); err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to update business", zap.String("business_id", b.ID), zap.Error(err))
		return nil, errutil.Internal("failed to update business", err)
	}
	return s.GetByID(ctx, b.ID)
}

// Review sets the approval status of a business and notifies its owner.
func (s *Service) Review(ctx context.Context, actorID, businessID string, req ReviewRequest) (*Business, error) {
	if req.Status.String() == "" {
		return nil, errutil.ValidationFailed("unknown approval status", nil)
	}
	b, err := s.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.Update(ctx, b.ID, map[string]any{
		"approval_status": req.Status,
		"reviewed_by":     actorID,
		"reviewed_at":     now,
	}); err != nil {
		return nil, errutil.Internal("failed to review business", err)
	}

	logger.WithTrace(ctx, s.log).Info("business reviewed",
		zap.String("business_id", b.ID),
		zap.String("from", string(b.ApprovalStatus)),
		zap.String("to", string(req.Status)),
		zap.String("actor_id", actorID),
	)

	if b.ApprovalStatus != req.Status {
		s.publisher.BusinessReviewed(ctx, notification.BusinessReviewedPayload{
			BusinessID:   b.ID,
			BusinessName: b.Name,
			OwnerUserID:  b.OwnerID,
			Status:       string(req.Status),
			Reason:       req.Reason,
		})
	}
	return s.GetByID(ctx, b.ID)
}

func (s *Service) CountPending(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, &Business{ApprovalStatus: ApprovalPending})
}
