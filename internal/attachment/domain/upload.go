package domain

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Kind definition upload kind
type Kind string

const (
	// KindImage image attachment
	KindImage Kind = "image"
	// KindFile document attachment
	KindFile Kind = "file"
)

// Purpose what the upload is used for
type Purpose string

const (
	// PurposeMessage attachment of a chat message
	PurposeMessage Purpose = "message"
	// PurposeAvatar profile picture
	PurposeAvatar Purpose = "avatar"
)

// UploadStatus definition upload status
type UploadStatus string

const (
	// UploadPending record created, object not stored yet
	UploadPending UploadStatus = "pending"
	// UploadStored object stored
	UploadStored UploadStatus = "stored"
	// UploadFailed object store failed
	UploadFailed UploadStatus = "failed"
)

// DefaultMaxSize 5MB
const DefaultMaxSize int64 = 5 * 1024 * 1024

var (
	// ErrTooLarge file exceeds the size limit
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType file type not allowed
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmptyFile zero byte upload
	ErrEmptyFile = errors.New("empty file")
)

var (
	imageExts = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true}
	fileExts  = map[string]bool{".pdf": true, ".doc": true, ".docx": true, ".txt": true, ".zip": true, ".rar": true}
)

// Upload 上傳紀錄
type Upload struct {
	ID        string `gorm:"primaryKey;size:36"`
	OwnerID   string `gorm:"index;size:64"`
	Purpose   Purpose
	Kind      Kind
	ObjectKey string
	FileName  string
	MimeType  string
	Size      int64
	URL       string
	Status    UploadStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UploadReq usecase upload request
type UploadReq struct {
	OwnerID  string
	Purpose  Purpose
	FileName string
	MimeType string
	Size     int64
	File     io.Reader
}

// Classify decide image / file by extension or mime, reject anything else
func Classify(fileName, mimeType string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType = strings.ToLower(mimeType)

	if imageExts[ext] {
		return KindImage, nil
	}
	if strings.HasPrefix(mimeType, "image/") && !fileExts[ext] {
		return KindImage, nil
	}
	if fileExts[ext] {
		return KindFile, nil
	}
	return "", ErrUnsupportedType
}

// Validate 檢查大小與類型
func (r UploadReq) Validate(maxSize int64) (Kind, error) {
	if r.Size <= 0 {
		return "", ErrEmptyFile
	}
	if r.Size > maxSize {
		return "", ErrTooLarge
	}
	kind, err := Classify(r.FileName, r.MimeType)
	if err != nil {
		return "", err
	}
	if r.Purpose == PurposeAvatar && kind != KindImage {
		return "", ErrUnsupportedType
	}
	return kind, nil
}
