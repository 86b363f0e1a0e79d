package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		mime     string
		kind     Kind
		err      error
	}{
		{"png", "a.PNG", "image/png", KindImage, nil},
		{"svg", "logo.svg", "", KindImage, nil},
		{"image mime with odd ext", "photo.heic", "image/heic", KindImage, nil},
		{"pdf", "report.pdf", "application/pdf", KindFile, nil},
		{"rar", "bundle.rar", "application/octet-stream", KindFile, nil},
		{"exe", "virus.exe", "application/octet-stream", "", ErrUnsupportedType},
		{"no ext no mime", "README", "", "", ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, err := Classify(tc.fileName, tc.mime)
			assert.Equal(t, tc.kind, kind)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestUploadReqValidate(t *testing.T) {
	req := UploadReq{FileName: "a.png", MimeType: "image/png", Size: 10, Purpose: PurposeMessage}
	kind, err := req.Validate(DefaultMaxSize)
	assert.NoError(t, err)
	assert.Equal(t, KindImage, kind)

	req.Size = DefaultMaxSize + 1
	_, err = req.Validate(DefaultMaxSize)
	assert.ErrorIs(t, err, ErrTooLarge)

	req.Size = 0
	_, err = req.Validate(DefaultMaxSize)
	assert.ErrorIs(t, err, ErrEmptyFile)

	avatar := UploadReq{FileName: "cv.pdf", MimeType: "application/pdf", Size: 10, Purpose: PurposeAvatar}
	_, err = avatar.Validate(DefaultMaxSize)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
