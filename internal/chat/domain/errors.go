package domain

import "errors"

var (
	// ErrEmptyMessage text empty or whitespace with no attachment
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrInvalidIdentity missing id or self send
	ErrInvalidIdentity = errors.New("invalid sender or receiver")
	// ErrReceiverNotFound receiver not in the directory
	ErrReceiverNotFound = errors.New("receiver not found")
	// ErrInvalidPayload kind and attachment do not match
	ErrInvalidPayload = errors.New("invalid message payload")
	// ErrAttachmentTooLarge over the upload limit
	ErrAttachmentTooLarge = errors.New("attachment too large")
	// ErrUnsupportedFileType mime / extension not allowed
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrPartialPersistence message and conversation writes diverged
	ErrPartialPersistence = errors.New("partial persistence")
	// ErrConversationNotFound no conversation between the pair
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrMessageNotFound unknown message id
	ErrMessageNotFound = errors.New("message not found")
)
