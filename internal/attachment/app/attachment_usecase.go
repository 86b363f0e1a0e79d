package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"vach_chat_service/internal/attachment/domain"
	"vach_chat_service/internal/attachment/repository"
	"vach_chat_service/pkg/database"
	errprocess "vach_chat_service/pkg/err"
	"vach_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachmentUseCase 這裡封裝了對外提供的應用服務
type AttachmentUseCase interface {
	Upload(ctx context.Context, req domain.UploadReq) (*domain.Upload, error)
	Discard(ctx context.Context, upload *domain.Upload)
}

type attachmentUseCase struct {
	storage    database.ObjectStorage
	uploadRepo repository.UploadRepository
	maxSize    int64
}

// NewAttachmentUseCase 建立 AttachmentUseCase
func NewAttachmentUseCase(storage database.ObjectStorage, repo repository.UploadRepository, maxSize int64) AttachmentUseCase {
	if maxSize <= 0 {
		maxSize = domain.DefaultMaxSize
	}
	return &attachmentUseCase{
		storage:    storage,
		uploadRepo: repo,
		maxSize:    maxSize,
	}
}

func objectKey(req domain.UploadReq, id string) string {
	prefix := "chat"
	if req.Purpose == domain.PurposeAvatar {
		prefix = "avatars"
	}
	return fmt.Sprintf("%s/%s/%s%s", prefix, req.OwnerID, id, strings.ToLower(filepath.Ext(req.FileName)))
}

// Upload 驗證 -> 建立紀錄 -> 上傳 MinIO -> 更新狀態
func (a *attachmentUseCase) Upload(ctx context.Context, req domain.UploadReq) (*domain.Upload, error) {
	kind, err := req.Validate(a.maxSize)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := objectKey(req, id)
	upload := &domain.Upload{
		ID:        id,
		OwnerID:   req.OwnerID,
		Purpose:   req.Purpose,
		Kind:      kind,
		ObjectKey: key,
		FileName:  filepath.Base(req.FileName),
		MimeType:  req.MimeType,
		Size:      req.Size,
		URL:       a.storage.ObjectURL(key),
		Status:    domain.UploadPending,
	}

	if err := a.uploadRepo.Create(ctx, upload); err != nil {
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 建立上傳紀錄失敗 : %v", req.FileName, err))
	}

	if err := a.storage.PutObject(ctx, key, req.File, req.Size, req.MimeType); err != nil {
		if uerr := a.uploadRepo.UpdateStatus(ctx, id, domain.UploadFailed); uerr != nil {
			logger.Log.Warn("mark upload failed", zap.String("upload_id", id), zap.Error(uerr))
		}
		return nil, errprocess.Set(fmt.Sprintf("fileName[%s] 上傳 MinIO 失敗 : %v", req.FileName, err))
	}

	if err := a.uploadRepo.UpdateStatus(ctx, id, domain.UploadStored); err != nil {
		// 物件已存, 紀錄狀態落後不影響訊息
		logger.Log.Warn("mark upload stored", zap.String("upload_id", id), zap.Error(err))
	}
	upload.Status = domain.UploadStored

	logger.Log.Info("attachment stored",
		zap.String("owner_id", req.OwnerID),
		zap.String("object_key", key),
		zap.Int64("size", req.Size),
	)
	return upload, nil
}

// Discard 上傳後的流程失敗時刪除物件
func (a *attachmentUseCase) Discard(ctx context.Context, upload *domain.Upload) {
	if upload == nil {
		return
	}
	if err := a.storage.RemoveObject(ctx, upload.ObjectKey); err != nil {
		logger.Log.Warn("remove orphan object", zap.String("object_key", upload.ObjectKey), zap.Error(err))
	}
	if err := a.uploadRepo.UpdateStatus(ctx, upload.ID, domain.UploadFailed); err != nil {
		logger.Log.Warn("mark upload discarded", zap.String("upload_id", upload.ID), zap.Error(err))
	}
}
