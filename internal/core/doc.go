// Package core provides the business logic for jail record import and export.
//
// This package holds all domain logic independent of any transport layer. It
// is used by the web handlers, the jailctl CLI and tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Import kinds: registered via the registry, each kind names its payload
//     format and the function that parses, validates and stages it.
//   - Store: a unit of work over departments, cells, prisoners, mails and
//     officers. Imports stage records and commit them with one SaveChanges.
//   - Service: the entry point for imports and exports. It bounds
//     concurrency, applies timeouts and archives payloads and reports.
//
// # Import Kinds
//
// Kinds are registered at init time using [Register]:
//
//	core.Register(ImportKind{
//	    Key:    KindPrisoners,
//	    Format: FormatJSON,
//	    Order:  2,
//	    Import: importPrisoners,
//	})
//
// # Partial Acceptance
//
// Every top-level record in a payload produces one report line, in input
// order. Invalid records are reported as [InvalidDataLine] and skipped; valid
// ones are committed together. A payload that cannot be parsed at all fails
// with [ErrMalformedPayload] and produces no report.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - IMP001-IMP006: Import errors (parse, kind, concurrency, size)
//   - DB001-DB003: Store errors (references, availability, duplicates)
//   - EXP001: Export filter errors
//   - ARC001-ARC002: Archive errors
package core
