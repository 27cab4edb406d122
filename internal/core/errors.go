package core

import "errors"

var (
	// ErrMalformedPayload wraps structural parse failures. The import call
	// aborts and no report is produced.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrForeignKey is returned by stores when a commit references a record
	// that does not exist.
	ErrForeignKey = errors.New("foreign key constraint failed")

	// ErrDuplicateKey is returned by stores when a commit would store the same
	// officer-prisoner link twice.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreUnavailable is returned when the record store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPayloadTooLarge is returned when a payload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnknownKind is returned for import kinds missing from the registry.
	ErrUnknownKind = errors.New("unknown import kind")

	// ErrInvalidFilter is returned for export filters that cannot be parsed.
	ErrInvalidFilter = errors.New("invalid export filter")

	// ErrRunNotFound is returned when an archived import run does not exist.
	ErrRunNotFound = errors.New("import run not found")

	// ErrArchiveDisabled is returned by archive queries when no archive is configured.
	ErrArchiveDisabled = errors.New("import archive is disabled")
)
