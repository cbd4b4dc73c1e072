package repository

import (
	"context"

	"hersis/internal/model"

	"gorm.io/gorm"
)

type LogRepository interface {
	Create(ctx context.Context, l *model.LogAuditoria) error
}

type logRepo struct{ db *gorm.DB }

func NewLogRepository(db *gorm.DB) LogRepository { return &logRepo{db: db} }

func (r *logRepo) Create(ctx context.Context, l *model.LogAuditoria) error {
	return r.db.WithContext(ctx).Create(l).Error
}
