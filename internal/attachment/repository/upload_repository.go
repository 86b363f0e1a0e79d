package repository

import (
	"context"

	"vach_chat_service/internal/attachment/domain"

	"gorm.io/gorm"
)

// UploadRepository definition upload record store
type UploadRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, upload *domain.Upload) error
	UpdateStatus(ctx context.Context, id string, status domain.UploadStatus) error
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository create UploadRepository
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

// AutoMigrate 建立 / 更新 uploads 資料表
func (r *uploadRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Upload{})
}

func (r *uploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

// UpdateStatus 只更新 status 欄位
func (r *uploadRepository) UpdateStatus(ctx context.Context, id string, status domain.UploadStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Upload{}).Where("id = ?", id).Update("status", status).Error
}
