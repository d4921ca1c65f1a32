package media

import (
	"context"
	"path"
	"strings"

	"chamber122/pkg/errutil"
	"chamber122/pkg/logger"
	"chamber122/pkg/minio"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Purpose string

const (
	PurposeCover Purpose = "cover"
	PurposeLogo  Purpose = "logo"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type PresignRequest struct {
	Purpose     Purpose `json:"purpose" binding:"required,oneof=cover logo"`
	FileName    string  `json:"file_name" binding:"required,max=255"`
	ContentType string  `json:"content_type" binding:"required"`
}

type Upload struct {
	ObjectKey string `json:"object_key"`
	UploadURL string `json:"upload_url"`
	PublicURL string `json:"public_url"`
}

type Service struct {
	storage minio.Storage
	node    *snowflake.Node
	log     *zap.Logger
}

type ServiceParams struct {
	fx.In
	Storage minio.Storage `optional:"true"`
	Node    *snowflake.Node
	Logger  *zap.Logger `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{storage: p.Storage, node: p.Node, log: log}
}

// ObjectKey builds "{purpose}/{userID}/{id}-{slug}{ext}". The extension
// follows the content type, not the client's file name.
func (s *Service) ObjectKey(userID string, req PresignRequest) (string, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(req.ContentType))]
	if !ok {
		return "", errutil.UnsupportedMediaType("only jpeg, png, webp and gif images are accepted", nil)
	}
	if req.Purpose != PurposeCover && req.Purpose != PurposeLogo {
		return "", errutil.ValidationFailed("unknown upload purpose", nil)
	}

	base := strings.TrimSuffix(path.Base(req.FileName), path.Ext(req.FileName))
	name := slug.Make(base)
	if name == "" {
		name = "upload"
	}
	return path.Join(string(req.Purpose), userID, s.node.Generate().String()+"-"+name+ext), nil
}

// Presign returns a short-lived PUT URL for one image.
func (s *Service) Presign(ctx context.Context, userID string, req PresignRequest) (*Upload, error) {
	if s.storage == nil {
		return nil, errutil.NotImplemented("media uploads are not configured", nil)
	}
	key, err := s.ObjectKey(userID, req)
	if err != nil {
		return nil, err
	}

	u, err := s.storage.PresignPut(ctx, key)
	if err != nil {
		logger.WithTrace(ctx, s.log).Error("failed to presign upload", zap.String("object_key", key), zap.Error(err))
		return nil, errutil.BadGateway("failed to presign upload", err)
	}
	return &Upload{ObjectKey: key, UploadURL: u.String(), PublicURL: s.storage.PublicURL(key)}, nil
}

// PurgeOwner removes every upload userID made. Without storage it is a no-op.
func (s *Service) PurgeOwner(ctx context.Context, userID string) (int, error) {
	if s.storage == nil {
		return 0, nil
	}
	if strings.TrimSpace(userID) == "" {
		return 0, errutil.BadRequest("user id is required", nil)
	}

	total := 0
	for _, purpose := range []Purpose{PurposeCover, PurposeLogo} {
		n, err := s.storage.RemovePrefix(ctx, string(purpose)+"/"+userID+"/")
		total += n
		if err != nil {
			logger.WithTrace(ctx, s.log).Error("failed to purge uploads",
				zap.String("user_id", userID), zap.String("purpose", string(purpose)), zap.Error(err))
			return total, errutil.BadGateway("failed to purge uploads", err)
		}
	}
	return total, nil
}
