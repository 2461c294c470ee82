package commonModels

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrFileMissing     = errors.New("file does not exist")
	ErrFileTooLarge    = errors.New("file exceeds the maximum size")
	ErrEncrypted       = errors.New("file is encrypted")
	ErrNoPages         = errors.New("file has no pages")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyText       = errors.New("no text could be extracted")
	ErrUnreadable      = errors.New("file could not be parsed")

	ErrTransient = errors.New("external service failure")
	ErrNotFound  = errors.New("not found")

	ErrInvalidTransition = errors.New("invalid document status transition")
	ErrAlreadyClaimed    = errors.New("document already claimed")
)

// validationError keeps the specific cause while also matching ErrValidation.
type validationError struct {
	cause  error
	detail string
}

func (e *validationError) Error() string {
	if e.detail == "" {
		return e.cause.Error()
	}
	return e.cause.Error() + ": " + e.detail
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *validationError) Unwrap() error { return e.cause }

func NewValidationError(cause error, detail string) error {
	return &validationError{cause: cause, detail: detail}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
