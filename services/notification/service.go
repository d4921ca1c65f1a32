package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chamber122/pkg/db/option"
	"chamber122/pkg/db/pagination"
	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	node *snowflake.Node
	repo repository.Repository[Notification]
	log  *zap.Logger
	now  func() time.Time
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Logger *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		node: p.Node,
		repo: repository.ProvideStore[Notification](p.DB),
		log:  log,
		now:  time.Now,
	}
}

func (s *Service) List(ctx context.Context, userID string, page pagination.Pagination) ([]*Notification, *pagination.PageInfo, error) {
	items, err := s.repo.Find(ctx, &Notification{UserID: userID},
		option.WithSortBy(option.QuerySortBy{OrderBy: "desc"}),
		option.ApplyPagination(page),
	)
	if err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to list notifications", zap.Error(err))
		return nil, nil, errutil.Internal("failed to list notifications", err)
	}
	items, info := pagination.BuildCursorPageInfo(items, page.Limit, func(n *Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano), ID: n.ID}
	})
	return items, info, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.Count(ctx, &Notification{UserID: userID}, option.ApplyOperator(option.Condition{Field: "read_at", Value: nil}))
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if id == "" || userID == "" {
		return errutil.NotFound("notification not found", nil)
	}
	n, err := s.repo.FindOne(ctx, &Notification{ID: id, UserID: userID})
	if err != nil {
		return errutil.Internal("failed to load notification", err)
	}
	if n == nil {
		return errutil.NotFound("notification not found", nil)
	}
	if n.ReadAt != nil {
		return nil
	}
	now := s.now().UTC()
	if err := s.repo.Update(ctx, id, map[string]any{"read_at": now}); err != nil {
		return errutil.Internal("failed to update notification", err)
	}
	return nil
}

// Create stores a notification for userID. payload may be nil.
func (s *Service) Create(ctx context.Context, userID string, kind Kind, subjectID, title, body string, payload any) (*Notification, error) {
	if userID == "" {
		return nil, errutil.BadRequest("notification requires a recipient", nil)
	}
	n := &Notification{
		ID:        s.node.Generate().String(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		SubjectID: subjectID,
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal notification payload: %w", err)
		}
		n.Payload = datatypes.JSON(b)
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}
