package schema

import (
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/message"
	"chamber122/services/notification"
	"chamber122/services/registration"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates every table on startup.
var Module = fx.Module("schema", fx.Invoke(Migrate))

// Models lists the persisted types in dependency order.
func Models() []any {
	return []any{
		&auth.User{},
		&business.Business{},
		&content.Record{},
		&content.AuditEntry{},
		&registration.Registration{},
		&notification.Notification{},
		&message.Conversation{},
		&message.Message{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		zap.L().Error("failed to migrate schema", zap.Error(err))
		return err
	}
	return nil
}
