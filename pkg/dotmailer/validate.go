package dotmailer

import (
	"fmt"
	"regexp"
)

// dateTimePattern is the xsd:dateTime lexical form
// [-]CCYY-MM-DDThh:mm:ss[.s+][Z|(+|-)hh:mm]. Values are matched, not parsed.
var dateTimePattern = regexp.MustCompile(`^-?\d{4}-[0-1]\d-[0-3]\dT[0-2]\d:[0-5]\d:[0-5]\d(\.\d+)?(Z|[+-][0-5]\d:[0-5]\d)?$`)

// ValidDateTime reports whether s is accepted by date-bearing operations.
func ValidDateTime(s string) bool {
	return dateTimePattern.MatchString(s)
}

func requireDateTime(name, s string) error {
	if !ValidDateTime(s) {
		return fmt.Errorf("%w: %s %q", ErrInvalidDateTimeFormat, name, s)
	}
	return nil
}

func requireAddressBookID(id int) error {
	if id == 0 {
		return fmt.Errorf("%w: addressBookId is required", ErrMissingRequiredParameters)
	}
	return nil
}
