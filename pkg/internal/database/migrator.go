package database

import (
	"github.com/workbridge/calling/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.Workspace{},
	&models.WorkspaceMember{},
	&models.Call{},
	&models.CallEvent{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
