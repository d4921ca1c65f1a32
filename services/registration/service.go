package registration

import (
	"context"
	"strings"
	"time"

	"chamber122/pkg/db/option"
	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"
	"chamber122/services/content"
	"chamber122/services/identity"
	"chamber122/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordLoader is the part of content.Service registrations need.
type RecordLoader interface {
	GetVisible(ctx context.Context, kind content.Kind, id string) (*content.Record, error)
	Get(ctx context.Context, who *identity.Identity, kind content.Kind, id string) (*content.Record, error)
}

type Service struct {
	node      *snowflake.Node
	repo      repository.Repository[Registration]
	records   RecordLoader
	publisher *notification.Publisher
	log       *zap.Logger
	now       func() time.Time
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Records   *content.Service
	Publisher *notification.Publisher `optional:"true"`
	Logger    *zap.Logger             `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		node:      p.Node,
		repo:      repository.ProvideStore[Registration](p.DB),
		records:   p.Records,
		publisher: p.Publisher,
		log:       log,
		now:       time.Now,
	}
}

// Register signs someone up for a publicly visible record. One email may
// register once per record.
func (s *Service) Register(ctx context.Context, kind content.Kind, recordID string, req CreateRequest) (*Registration, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, errutil.ValidationFailed("name and email are required", nil)
	}

	rec, err := s.records.GetVisible(ctx, kind, recordID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Count(ctx, &Registration{RecordID: rec.ID, Email: email})
	if err != nil {
		return nil, errutil.Internal("failed to check registration", err)
	}
	if existing > 0 {
		return nil, errutil.Conflict("already registered", nil)
	}

	reg := &Registration{
		ID:        s.node.Generate().String(),
		RecordID:  rec.ID,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to create registration", zap.String("record_id", rec.ID), zap.Error(err))
		return nil, errutil.Internal("failed to create registration", err)
	}

	s.publisher.RegistrationCreated(ctx, notification.RegistrationCreatedPayload{
		RegistrationID: reg.ID,
		RecordID:       rec.ID,
		RecordTitle:    rec.Title,
		OwnerUserID:    rec.OwnerUserID,
		Name:           reg.Name,
	})
	return reg, nil
}

// ListForRecord returns the registrations of a record the caller manages.
func (s *Service) ListForRecord(ctx context.Context, who *identity.Identity, recordID string) ([]*Registration, error) {
	rec, err := s.records.Get(ctx, who, "", recordID)
	if err != nil {
		return nil, err
	}
	if !content.CanManage(who, rec) {
		return nil, errutil.Forbidden("permission denied", nil)
	}

	items, err := s.repo.Find(ctx, &Registration{RecordID: rec.ID},
		option.WithSortBy(option.QuerySortBy{OrderBy: "asc"}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list registrations", err)
	}
	return items, nil
}
