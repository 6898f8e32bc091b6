package validation

import (
	"fmt"

	dErrors "credvault/pkg/domain-errors"
)

// DefaultMaxBodySize allows certificate attachments sent inline as base64.
const DefaultMaxBodySize = 50 << 20

// String length limits applied to request fields.
const (
	MaxNameLength     = 200
	MaxEmailLength    = 255
	MaxTitleLength    = 300
	MaxPasswordLength = 72 // bcrypt input limit
	MaxFileNameLength = 255
	MaxFileTypeLength = 100
	MaxWalletIDLength = 100
)

// CheckStringLength fails with a validation error when value exceeds max bytes.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
