package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"vach_chat_service/internal/attachment/domain"
	"vach_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) PutObject(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectName, r, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) RemoveObject(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockObjectStorage) ObjectURL(objectName string) string {
	return "http://minio/chat-bucket/" + objectName
}

type MockUploadRepo struct {
	mock.Mock
}

func (m *MockUploadRepo) AutoMigrate() error {
	return m.Called().Error(0)
}

func (m *MockUploadRepo) Create(ctx context.Context, upload *domain.Upload) error {
	args := m.Called(ctx, upload)
	return args.Error(0)
}

func (m *MockUploadRepo) UpdateStatus(ctx context.Context, id string, status domain.UploadStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func TestAttachmentUseCase_Upload(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	newReq := func() domain.UploadReq {
		return domain.UploadReq{
			OwnerID:  "alice",
			Purpose:  domain.PurposeMessage,
			FileName: "Photo.PNG",
			MimeType: "image/png",
			Size:     4,
			File:     bytes.NewReader([]byte("data")),
		}
	}

	t.Run("上傳成功", func(t *testing.T) {
		storage := new(MockObjectStorage)
		repo := new(MockUploadRepo)
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Upload")).Return(nil).Once()
		storage.On("PutObject", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "chat/alice/") && strings.HasSuffix(key, ".png")
		}), mock.Anything, int64(4), "image/png").Return(nil).Once()
		repo.On("UpdateStatus", ctx, mock.Anything, domain.UploadStored).Return(nil).Once()

		uc := NewAttachmentUseCase(storage, repo, 0)
		up, err := uc.Upload(ctx, newReq())

		require.NoError(t, err)
		assert.Equal(t, domain.KindImage, up.Kind)
		assert.Equal(t, domain.UploadStored, up.Status)
		assert.Equal(t, "Photo.PNG", up.FileName)
		assert.True(t, strings.HasPrefix(up.URL, "http://minio/chat-bucket/chat/alice/"))
		repo.AssertExpectations(t)
		storage.AssertExpectations(t)
	})

	t.Run("檔案過大", func(t *testing.T) {
		storage := new(MockObjectStorage)
		repo := new(MockUploadRepo)
		req := newReq()
		req.Size = domain.DefaultMaxSize + 1

		_, err := NewAttachmentUseCase(storage, repo, 0).Upload(ctx, req)
		assert.ErrorIs(t, err, domain.ErrTooLarge)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("MinIO 失敗標記 failed", func(t *testing.T) {
		storage := new(MockObjectStorage)
		repo := new(MockUploadRepo)
		repo.On("Create", ctx, mock.Anything).Return(nil).Once()
		storage.On("PutObject", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("minio down")).Once()
		repo.On("UpdateStatus", ctx, mock.Anything, domain.UploadFailed).Return(nil).Once()

		_, err := NewAttachmentUseCase(storage, repo, 0).Upload(ctx, newReq())
		assert.Error(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("avatar 只接受圖片", func(t *testing.T) {
		req := newReq()
		req.Purpose = domain.PurposeAvatar
		req.FileName = "cv.pdf"
		req.MimeType = "application/pdf"

		_, err := NewAttachmentUseCase(new(MockObjectStorage), new(MockUploadRepo), 0).Upload(ctx, req)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("Discard 刪除物件", func(t *testing.T) {
		storage := new(MockObjectStorage)
		repo := new(MockUploadRepo)
		storage.On("RemoveObject", ctx, "chat/alice/x.png").Return(nil).Once()
		repo.On("UpdateStatus", ctx, "x", domain.UploadFailed).Return(nil).Once()

		NewAttachmentUseCase(storage, repo, 0).Discard(ctx, &domain.Upload{ID: "x", ObjectKey: "chat/alice/x.png"})
		storage.AssertExpectations(t)
		repo.AssertExpectations(t)
	})
}
