package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/repository"
	"chamber122/pkg/security"
	"chamber122/pkg/session"
	"chamber122/services/business"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

type Service struct {
	db         *gorm.DB
	node       *snowflake.Node
	repo       repository.Repository[User]
	businesses *business.Service
	log        *zap.Logger
}

type ServiceParams struct {
	fx.In
	DB         *gorm.DB
	Node       *snowflake.Node
	Businesses *business.Service
	Logger     *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:         p.DB,
		node:       p.Node,
		repo:       repository.ProvideStore[User](p.DB),
		businesses: p.Businesses,
		log:        log,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultBusinessName is the local part of the email, used when signup
// does not name the business.
func defaultBusinessName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

// Signup creates a member account and its pending business in one
// transaction.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, *business.Business, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, nil, errutil.ValidationFailed("email is required", nil)
	}
	if len(req.Password) < MinPasswordLength {
		return nil, nil, errutil.ValidationFailed("password must be at least 6 characters", nil,
			errutil.WithDetails(errutil.Detail{Field: "password", Message: "too short"}))
	}

	taken, err := s.repo.Count(ctx, &User{Email: email})
	if err != nil {
		return nil, nil, errutil.Internal("failed to check email", err)
	}
	if taken > 0 {
		return nil, nil, errutil.Conflict("email already registered", ErrEmailTaken)
	}

	hash, err := security.HashArgon2(req.Password)
	if err != nil {
		return nil, nil, errutil.Internal("failed to hash password", err)
	}

	user := &User{
		ID:           s.node.Generate().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         session.RoleMember,
	}

	name := strings.TrimSpace(req.BusinessName)
	if name == "" {
		name = defaultBusinessName(email)
	}

	var biz *business.Business
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, user); err != nil {
			return err
		}
		var err error
		biz, err = s.businesses.CreateForOwner(ctx, tx, user.ID, name)
		return err
	})
	if err != nil {
		var be errutil.BaseError
		if errors.As(err, &be) {
			return nil, nil, be
		}
		logger.WithTrace(ctx, s.log).Error("failed to sign up", zap.String("email", email), zap.Error(err))
		return nil, nil, errutil.Internal("failed to create account", err)
	}

	logger.WithTrace(ctx, s.log).Info("user signed up", zap.String("user_id", user.ID), zap.String("business_id", biz.ID))
	return user, biz, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.repo.FindOne(ctx, &User{Email: NormalizeEmail(req.Email)})
	if err != nil {
		return nil, errutil.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, errutil.Unauthorized("invalid email or password", ErrInvalidCredentials)
	}

	ok, err := security.VerifyArgon2(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, errutil.Unauthorized("invalid email or password", ErrInvalidCredentials)
	}
	return user, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.FindOne(ctx, &User{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, errutil.NotFound("user not found", nil)
	}
	return user, nil
}

// EnsureAdmin creates the admin account or resets its password and role.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || len(password) < MinPasswordLength {
		return nil, errutil.ValidationFailed("admin email and a password of at least 6 characters are required", nil)
	}
	hash, err := security.HashArgon2(password)
	if err != nil {
		return nil, errutil.Internal("failed to hash password", err)
	}

	user, err := s.repo.FindOne(ctx, &User{Email: email})
	if err != nil {
		return nil, errutil.Internal("failed to load user", err)
	}
	if user == nil {
		user = &User{
			ID:           s.node.Generate().String(),
			Email:        email,
			PasswordHash: hash,
			Name:         name,
			Role:         session.RoleAdmin,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, errutil.Internal("failed to create admin", err)
		}
		return user, nil
	}

	if err := s.repo.Update(ctx, user.ID, map[string]any{
		"password_hash": hash,
		"role":          session.RoleAdmin,
		"updated_at":    time.Now().UTC(),
	}); err != nil {
		return nil, errutil.Internal("failed to update admin", err)
	}
	return s.GetByID(ctx, user.ID)
}
