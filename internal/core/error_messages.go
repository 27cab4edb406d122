package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Malformed payload: The file could not be parsed
//	         Action: Check the JSON or XML structure of the file
//	IMP002 - Unknown import kind
//	         Action: Use one of departments, prisoners, officers
//	IMP003 - Too many imports in progress
//	         Action: Please try again in a few moments
//	IMP004 - Import timed out
//	         Action: Try a smaller file
//	IMP005 - Import cancelled
//	IMP006 - Payload too large
//	         Action: Split the file into smaller imports
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Foreign key: Referenced record does not exist
//	        Action: Import departments and prisoners before the records that reference them
//	DB002 - Store unavailable
//	        Action: Please try again in a few moments
//	DB003 - Duplicate key: The same officer-prisoner link appears twice
//	        Action: List each prisoner once per officer
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Invalid export filter
//	         Action: Pass prisoner ids as comma-separated integers
//
// # Archive Errors (ARC001-ARC099)
//
//	ARC001 - Archived run not found
//	ARC002 - Archive disabled
//
// # General Errors
//
//	GEN001 - Unexpected error (fallback)
//
// Sentinel errors are matched first with errors.Is. Errors from drivers that
// carry no sentinel fall back to case-insensitive substring patterns.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgMalformed = UserMessage{
		Message: "The file could not be parsed",
		Action:  "Check the JSON or XML structure of the file",
		Code:    "IMP001",
	}
	msgUnknownKind = UserMessage{
		Message: "Unknown import kind",
		Action:  "Use one of departments, prisoners, officers",
		Code:    "IMP002",
	}
	msgTooManyImports = UserMessage{
		Message: "Too many imports in progress",
		Action:  "Please try again in a few moments",
		Code:    "IMP003",
	}
	msgTimeout = UserMessage{
		Message: "Import timed out",
		Action:  "Try a smaller file",
		Code:    "IMP004",
	}
	msgCancelled = UserMessage{
		Message: "Import cancelled",
		Action:  "No records were saved",
		Code:    "IMP005",
	}
	msgPayloadTooLarge = UserMessage{
		Message: "The file is too large",
		Action:  "Split the file into smaller imports",
		Code:    "IMP006",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Import departments and prisoners before the records that reference them",
		Code:    "DB001",
	}
	msgStoreUnavailable = UserMessage{
		Message: "Unable to reach the record store",
		Action:  "Please try again in a few moments",
		Code:    "DB002",
	}
	msgDuplicateKey = UserMessage{
		Message: "A record with this key already exists",
		Action:  "List each prisoner once per officer",
		Code:    "DB003",
	}
	msgInvalidFilter = UserMessage{
		Message: "Invalid export filter",
		Action:  "Pass prisoner ids as comma-separated integers",
		Code:    "EXP001",
	}
	msgRunNotFound = UserMessage{
		Message: "Archived import run not found",
		Action:  "Check the run id in the import history",
		Code:    "ARC001",
	}
	msgArchiveDisabled = UserMessage{
		Message: "Import archive is disabled",
		Action:  "Set ARCHIVE_DRIVER to keep import history",
		Code:    "ARC002",
	}
)

// errorSentinel maps a sentinel error to its user message.
type errorSentinel struct {
	err error
	msg UserMessage
}

// Checked in order; the first match wins.
var errorSentinels = []errorSentinel{
	{ErrMalformedPayload, msgMalformed},
	{ErrUnknownKind, msgUnknownKind},
	{ErrTooManyImports, msgTooManyImports},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
	{ErrPayloadTooLarge, msgPayloadTooLarge},
	{ErrForeignKey, msgForeignKey},
	{ErrStoreUnavailable, msgStoreUnavailable},
	{ErrDuplicateKey, msgDuplicateKey},
	{ErrInvalidFilter, msgInvalidFilter},
	{ErrRunNotFound, msgRunNotFound},
	{ErrArchiveDisabled, msgArchiveDisabled},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps driver error text (case-insensitive) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{pattern: "foreign key constraint", msg: msgForeignKey},
	{pattern: "violates foreign key", msg: msgForeignKey},
	{pattern: "unique constraint", msg: msgDuplicateKey},
	{pattern: "duplicate key", msg: msgDuplicateKey},
	{pattern: "connection refused", msg: msgStoreUnavailable},
	{pattern: "connection reset", msg: msgStoreUnavailable},
	{pattern: "database is locked", msg: msgStoreUnavailable},
	{pattern: "timeout", msg: msgTimeout},
}

// defaultMessage is returned when nothing matches (GEN001). Support staff
// should check application logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "GEN001",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := svc.Import(ctx, "officers", payload)
//	msg := MapError(err)
//	// msg.Code == "DB001" when an officer references a missing department
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the GEN001 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
