package errprocess

import (
	"errors"

	"vach_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap log the cause and return a sentinel the caller can match with errors.Is
func Wrap(sentinel error, cause error, fields ...zap.Field) error {
	if cause == nil {
		return sentinel
	}
	logger.Log.Error(sentinel.Error(), append(fields, zap.Error(cause))...)
	return &wrapped{sentinel: sentinel, cause: cause}
}

type wrapped struct {
	sentinel error
	cause    error
}

func (w *wrapped) Error() string {
	return w.sentinel.Error() + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.sentinel, w.cause}
}
