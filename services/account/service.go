// Package account removes a member account and everything it owns.
package account

import (
	"context"
	"errors"

	"chamber122/pkg/db/option"
	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"
	"chamber122/pkg/session"
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/media"
	"chamber122/services/message"
	"chamber122/services/notification"
	"chamber122/services/registration"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSelfDeletion  = errors.New("cannot delete your own account")
	ErrAdminDeletion = errors.New("admin accounts cannot be deleted")
)

// MediaPurger removes a user's uploaded objects.
type MediaPurger interface {
	PurgeOwner(ctx context.Context, userID string) (int, error)
}

// ConversationRemover removes a user's conversations inside a transaction.
type ConversationRemover interface {
	DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) (conversations, messages int64, err error)
}

// Deletion reports what one account deletion removed.
type Deletion struct {
	BusinessID    string `json:"business_id"`
	UserID        string `json:"user_id"`
	Records       int64  `json:"records"`
	Registrations int64  `json:"registrations"`
	Conversations int64  `json:"conversations"`
	Messages      int64  `json:"messages"`
	Notifications int64  `json:"notifications"`
	MediaObjects  int    `json:"media_objects"`
}

type Service struct {
	db            *gorm.DB
	businesses    repository.Repository[business.Business]
	users         repository.Repository[auth.User]
	conversations ConversationRemover
	media         MediaPurger
	log           *zap.Logger
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Messages *message.Service
	Media    *media.Service `optional:"true"`
	Logger   *zap.Logger    `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:            p.DB,
		businesses:    repository.ProvideStore[business.Business](p.DB),
		users:         repository.ProvideStore[auth.User](p.DB),
		conversations: p.Messages,
		log:           log,
	}
	if p.Media != nil {
		s.media = p.Media
	}
	return s
}

// DeleteBusinessAccount removes the business, its owner and all the rows
// they own in one transaction, then purges the owner's uploads. Audit
// entries are kept. A failed purge is logged and does not undo the delete.
func (s *Service) DeleteBusinessAccount(ctx context.Context, actorID, businessID string) (*Deletion, error) {
	if businessID == "" {
		return nil, errutil.NotFound("business not found", business.ErrBusinessNotFound)
	}
	log := logger.WithTrace(ctx, s.log)

	d := &Deletion{BusinessID: businessID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.businesses.WithTrx(tx).FindOne(ctx, &business.Business{ID: businessID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if b == nil {
			return errutil.NotFound("business not found", business.ErrBusinessNotFound)
		}
		d.UserID = b.OwnerID
		if b.OwnerID == actorID {
			return errutil.BadRequest("cannot delete your own account", ErrSelfDeletion)
		}

		owner, err := s.users.WithTrx(tx).FindOne(ctx, &auth.User{ID: b.OwnerID})
		if err != nil {
			return err
		}
		if owner != nil && owner.Role == session.RoleAdmin {
			return errutil.Forbidden("admin accounts cannot be deleted", ErrAdminDeletion)
		}

		var recordIDs []string
		err = tx.WithContext(ctx).Model(&content.Record{}).
			Where("business_id = ? OR owner_user_id = ?", b.ID, b.OwnerID).
			Pluck("id", &recordIDs).Error
		if err != nil {
			return err
		}
		if len(recordIDs) > 0 {
			res := tx.WithContext(ctx).Where("record_id IN ?", recordIDs).Delete(&registration.Registration{})
			if res.Error != nil {
				return res.Error
			}
			d.Registrations = res.RowsAffected

			res = tx.WithContext(ctx).Where("id IN ?", recordIDs).Delete(&content.Record{})
			if res.Error != nil {
				return res.Error
			}
			d.Records = res.RowsAffected
		}

		if s.conversations != nil {
			d.Conversations, d.Messages, err = s.conversations.DeleteForUser(ctx, tx, b.OwnerID)
			if err != nil {
				return err
			}
		}

		res := tx.WithContext(ctx).Where("user_id = ?", b.OwnerID).Delete(&notification.Notification{})
		if res.Error != nil {
			return res.Error
		}
		d.Notifications = res.RowsAffected

		if err := tx.WithContext(ctx).Delete(&business.Business{}, "id = ?", b.ID).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Delete(&auth.User{}, "id = ?", b.OwnerID).Error
	})
	if err != nil {
		var be errutil.BaseError
		if errors.As(err, &be) {
			return nil, be
		}
		log.Error("failed to delete account", zap.String("business_id", businessID), zap.Error(err))
		return nil, errutil.Internal("failed to delete account", err)
	}

	if s.media != nil {
		n, err := s.media.PurgeOwner(ctx, d.UserID)
		d.MediaObjects = n
		if err != nil {
			log.Warn("account deleted but uploads remain", zap.String("user_id", d.UserID), zap.Error(err))
		}
	}

	log.Info("account deleted",
		zap.String("business_id", d.BusinessID),
		zap.String("user_id", d.UserID),
		zap.String("actor_id", actorID),
		zap.Int64("records", d.Records),
		zap.Int64("registrations", d.Registrations),
		zap.Int64("conversations", d.Conversations),
		zap.Int64("messages", d.Messages),
		zap.Int("media_objects", d.MediaObjects),
	)
	return d, nil
}
