package message

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"chamber122/pkg/db/option"
	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const previewLength = 120

var ErrConversationNotFound = errors.New("conversation not found")

type BusinessLookup interface {
	GetByOwner(ctx context.Context, userID string) (*business.Business, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

type Service struct {
	db            *gorm.DB
	node          *snowflake.Node
	conversations repository.Repository[Conversation]
	messages      repository.Repository[Message]
	businesses    BusinessLookup
	users         UserLookup
	publisher     *notification.Publisher
	log           *zap.Logger
	now           func() time.Time
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Node       *snowflake.Node
	Businesses *business.Service
	Users      *auth.Service
	Publisher  *notification.Publisher `optional:"true"`
	Logger     *zap.Logger             `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:            p.DB,
		node:          p.Node,
		conversations: repository.ProvideStore[Conversation](p.DB),
		messages:      repository.ProvideStore[Message](p.DB),
		businesses:    p.Businesses,
		users:         p.Users,
		publisher:     p.Publisher,
		log:           log,
		now:           time.Now,
	}
}

func notFound() error {
	return errutil.NotFound("conversation not found", ErrConversationNotFound)
}

func (s *Service) storeErr(ctx context.Context, msg string, err error) error {
	logger.WithTrace(ctx, s.log).Error(msg, zap.Error(err))
	return errutil.Internal(msg, err)
}

// List returns userID's conversations, most recently active first, each with
// the other participant, the latest message and the unread count.
func (s *Service) List(ctx context.Context, userID string) ([]*ConversationView, error) {
	var convs []*Conversation
	err := s.db.WithContext(ctx).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Order("id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, s.storeErr(ctx, "failed to list conversations", err)
	}
	if len(convs) == 0 {
		return []*ConversationView{}, nil
	}

	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	unread, err := s.unreadByConversation(ctx, userID, ids)
	if err != nil {
		return nil, s.storeErr(ctx, "failed to count unread messages", err)
	}

	views := make([]*ConversationView, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range convs {
		g.Go(func() error {
			other, err := s.participant(gctx, c.Other(userID))
			if err != nil {
				return err
			}
			last, err := s.messages.FindOne(gctx, &Message{ConversationID: c.ID},
				option.WithSortBy(option.QuerySortBy{OrderBy: "desc"}))
			if err != nil {
				return s.storeErr(gctx, "failed to load last message", err)
			}
			v := &ConversationView{Conversation: c, OtherParticipant: other, UnreadCount: unread[c.ID]}
			if last != nil {
				v.LastMessage = last.Content
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) unreadByConversation(ctx context.Context, userID string, ids []string) (map[string]int64, error) {
	var rows []struct {
		ConversationID string
		N              int64
	}
	err := s.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", ids, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ConversationID] = r.N
	}
	return out, nil
}

// Get returns one conversation with its messages oldest first and marks
// the other side's messages read. Non-participants get not found.
func (s *Service) Get(ctx context.Context, userID, id string) (*ConversationView, []Message, error) {
	if id == "" || userID == "" {
		return nil, nil, notFound()
	}
	conv, err := s.conversations.FindOne(ctx, &Conversation{ID: id},
		option.WithPreload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}))
	if err != nil {
		return nil, nil, s.storeErr(ctx, "failed to load conversation", err)
	}
	if conv == nil || !conv.Has(userID) {
		return nil, nil, notFound()
	}

	err = s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conv.ID, userID, false).
		Update("is_read", true).Error
	if err != nil {
		return nil, nil, s.storeErr(ctx, "failed to mark messages read", err)
	}

	other, err := s.participant(ctx, conv.Other(userID))
	if err != nil {
		return nil, nil, err
	}
	msgs := conv.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	conv.Messages = nil
	return &ConversationView{Conversation: conv, OtherParticipant: other}, msgs, nil
}

// Start returns the conversation between userID and otherUserID, creating
// it when none exists. created reports which happened.
func (s *Service) Start(ctx context.Context, userID string, req StartRequest) (view *ConversationView, created bool, err error) {
	otherID := strings.TrimSpace(req.OtherUserID)
	if otherID == "" {
		return nil, false, errutil.ValidationFailed("other_user_id is required", nil)
	}
	if otherID == userID {
		return nil, false, errutil.BadRequest("cannot start a conversation with yourself", nil)
	}
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, false, err
	}

	key := pairKey(userID, otherID)
	conv, err := s.conversations.FindOne(ctx, &Conversation{PairKey: key})
	if err != nil {
		return nil, false, s.storeErr(ctx, "failed to load conversation", err)
	}
	if conv == nil {
		now := s.now().UTC()
		conv = &Conversation{
			ID:             s.node.Generate().String(),
			PairKey:        key,
			Participant1ID: userID,
			Participant2ID: otherID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.conversations.Create(ctx, conv); err != nil {
			// A concurrent Start for the same pair wins the unique index.
			existing, ferr := s.conversations.FindOne(ctx, &Conversation{PairKey: key})
			if ferr != nil || existing == nil {
				return nil, false, s.storeErr(ctx, "failed to create conversation", err)
			}
			conv = existing
		} else {
			created = true
			logger.WithTrace(ctx, s.log).Info("conversation started",
				zap.String("conversation_id", conv.ID), zap.String("user_id", userID))
		}
	}

	other, err := s.participant(ctx, otherID)
	if err != nil {
		return nil, false, err
	}
	return &ConversationView{Conversation: conv, OtherParticipant: other}, created, nil
}

// Send appends a message to a conversation userID takes part in and
// notifies the other participant.
func (s *Service) Send(ctx context.Context, userID string, req SendRequest) (*Message, error) {
	content := strings.TrimSpace(req.Content)
	if req.ConversationID == "" || content == "" {
		return nil, errutil.ValidationFailed("conversation_id and content are required", nil)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, errutil.ValidationFailed("message is too long", nil,
			errutil.WithDetails(errutil.Detail{Field: "content", Message: "at most 5000 characters"}))
	}

	conv, err := s.conversations.FindOne(ctx, &Conversation{ID: req.ConversationID})
	if err != nil {
		return nil, s.storeErr(ctx, "failed to load conversation", err)
	}
	if conv == nil || !conv.Has(userID) {
		return nil, notFound()
	}

	now := s.now().UTC()
	msg := &Message{
		ID:             s.node.Generate().String(),
		ConversationID: conv.ID,
		SenderID:       userID,
		Content:        content,
		CreatedAt:      now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.messages.WithTrx(tx).Create(ctx, msg); err != nil {
			return err
		}
		return s.conversations.WithTrx(tx).Update(ctx, conv.ID, map[string]any{
			"last_message_at": now,
			"updated_at":      now,
		})
	})
	if err != nil {
		return nil, s.storeErr(ctx, "failed to send message", err)
	}

	sender, err := s.participant(ctx, userID)
	if err != nil {
		logger.WithTrace(ctx, s.log).Warn("failed to resolve sender", zap.String("user_id", userID), zap.Error(err))
	}
	s.publisher.MessageReceived(ctx, notification.MessageReceivedPayload{
		ConversationID:  conv.ID,
		MessageID:       msg.ID,
		RecipientUserID: conv.Other(userID),
		SenderID:        userID,
		SenderName:      sender.Name,
		Preview:         preview(content),
	})
	return msg, nil
}

// UnreadCount is the number of messages sent to userID not yet read.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("(conversations.participant1_id = ? OR conversations.participant2_id = ?)", userID, userID).
		Where("messages.sender_id <> ? AND messages.is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, s.storeErr(ctx, "failed to count unread messages", err)
	}
	return n, nil
}

// DeleteForUser removes every conversation userID takes part in, with its
// messages, inside tx.
func (s *Service) DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) (conversations, messages int64, err error) {
	if userID == "" {
		return 0, 0, nil
	}
	var ids []string
	err = tx.WithContext(ctx).Model(&Conversation{}).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, 0, err
	}

	res := tx.WithContext(ctx).Where("conversation_id IN ?", ids).Delete(&Message{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	messages = res.RowsAffected

	res = tx.WithContext(ctx).Where("id IN ?", ids).Delete(&Conversation{})
	if res.Error != nil {
		return 0, messages, res.Error
	}
	return res.RowsAffected, messages, nil
}

// participant describes userID by their business when they own one.
// Deleted accounts still render so old threads stay readable.
func (s *Service) participant(ctx context.Context, userID string) (Participant, error) {
	p := Participant{ID: userID, Type: ParticipantUser, Name: "User"}

	b, err := s.businesses.GetByOwner(ctx, userID)
	if err != nil {
		return p, err
	}
	if b != nil {
		p.Type = ParticipantBusiness
		p.Name = b.Name
		p.LogoURL = b.LogoURL
		p.BusinessID = b.ID
		return p, nil
	}

	u, err := s.users.GetByID(ctx, userID)
	if errutil.Is(err, errutil.StatusNotFound) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if u.Name != "" {
		p.Name = u.Name
	} else {
		p.Name = u.Email
	}
	return p, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	r := []rune(content)
	return string(r[:previewLength]) + "…"
}
