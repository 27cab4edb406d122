package core

// validation.go provides per-entity validation for import records.
//
// Each validator checks one record's own fields and returns every problem it
// finds. The importer only cares about Valid; the reasons are logged at debug
// level so a rejected record can be traced without changing the report.

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field bounds shared by all importers.
const (
	MinNameLength = 3
	MaxNameLength = 40

	MinCellNumber = 1
	MaxCellNumber = 1000

	MinAge = 1
	MaxAge = 100
)

// addressRegex accepts anything shaped like local@domain.tld.
var addressRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field name as it appears in the payload
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of validating a record.
type ValidationResult struct {
	Valid  bool              // True if all validations passed
	Errors []ValidationError // List of validation errors (empty if Valid)
}

func (r *ValidationResult) fail(field, value, msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: msg})
}

// Error joins all reasons into one string.
func (r ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func checkLength(r *ValidationResult, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		r.fail(field, value, fmt.Sprintf("length must be between %d and %d", min, max))
	}
}

func checkRequired(r *ValidationResult, field string, value *string) {
	if value == nil || *value == "" {
		r.fail(field, "", "required field is empty")
	}
}

// ValidateDepartment checks a department's own fields. Cells are validated
// separately so the importer can stop at the first bad one.
func ValidateDepartment(in DepartmentInput) ValidationResult {
	r := ValidationResult{Valid: true}
	if in.Name == nil {
		r.fail("Name", "", "required field is missing")
	} else {
		checkLength(&r, "Name", *in.Name, MinNameLength, MaxNameLength)
	}
	return r
}

// ValidateCell checks the cell number range and the presence of the window flag.
func ValidateCell(in CellInput) ValidationResult {
	r := ValidationResult{Valid: true}
	if in.CellNumber == nil {
		r.fail("CellNumber", "", "required field is missing")
	} else if n := *in.CellNumber; n < MinCellNumber || n > MaxCellNumber {
		r.fail("CellNumber", fmt.Sprint(n), fmt.Sprintf("must be between %d and %d", MinCellNumber, MaxCellNumber))
	}
	if in.HasWindow == nil {
		r.fail("HasWindow", "", "required field is missing")
	}
	return r
}

// ValidatePrisoner checks a prisoner's own fields. Dates are checked by the
// importer since their format rule also produces the parsed value.
func ValidatePrisoner(in PrisonerInput) ValidationResult {
	r := ValidationResult{Valid: true}

	if in.FullName == nil {
		r.fail("FullName", "", "required field is missing")
	} else {
		checkLength(&r, "FullName", *in.FullName, MinNameLength, MaxNameLength)
	}
	if in.Nickname != nil {
		checkLength(&r, "Nickname", *in.Nickname, MinNameLength, MaxNameLength)
	}
	if in.Age == nil {
		r.fail("Age", "", "required field is missing")
	} else if a := *in.Age; a < MinAge || a > MaxAge {
		r.fail("Age", fmt.Sprint(a), fmt.Sprintf("must be between %d and %d", MinAge, MaxAge))
	}
	if in.IncarcerationDate == nil || *in.IncarcerationDate == "" {
		r.fail("IncarcerationDate", "", "required field is empty")
	}
	if in.Bail != nil {
		bail, err := ParseMoney(in.Bail.String())
		if err != nil {
			r.fail("Bail", in.Bail.String(), err.Error())
		} else if bail.Int.Sign() < 0 {
			r.fail("Bail", in.Bail.String(), "must not be negative")
		}
	}
	return r
}

// ValidateMail checks the required text fields and the address shape.
func ValidateMail(in MailInput) ValidationResult {
	r := ValidationResult{Valid: true}
	checkRequired(&r, "Description", in.Description)
	checkRequired(&r, "Sender", in.Sender)
	if in.Address == nil || !addressRegex.MatchString(*in.Address) {
		value := ""
		if in.Address != nil {
			value = *in.Address
		}
		r.fail("Address", value, "must look like an email address")
	}
	return r
}

// ValidateOfficer checks an officer's own fields. Position and weapon are
// resolved by the importer against the closed lookup tables.
func ValidateOfficer(in OfficerInput) ValidationResult {
	r := ValidationResult{Valid: true}

	checkLength(&r, "Name", in.Name, MinNameLength, MaxNameLength)
	if in.Money == nil {
		r.fail("Money", "", "required field is missing")
	} else if salary, err := ParseMoney(*in.Money); err != nil {
		r.fail("Money", *in.Money, err.Error())
	} else if salary.Int.Sign() < 0 {
		r.fail("Money", *in.Money, "must not be negative")
	}
	if in.DepartmentID == nil {
		r.fail("DepartmentId", "", "required field is missing")
	}
	return r
}
