package errprocess

import (
	"errors"
	"testing"

	"vach_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	logger.SetNewNop()
	sentinel := errors.New("store failure")
	cause := errors.New("connection reset")

	err := Wrap(sentinel, cause)
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store failure: connection reset", err.Error())

	assert.Equal(t, sentinel, Wrap(sentinel, nil))
}

func TestSet(t *testing.T) {
	logger.SetNewNop()
	assert.EqualError(t, Set("建立訊息失敗"), "建立訊息失敗")
}
