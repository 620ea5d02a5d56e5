package run

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

type Status int

const (
	Unknown Status = iota
	Active
	Completed
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Active:    "active",
		Completed: "completed",
		Cancelled: "cancelled",
	}
}

func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if str == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid run status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid run status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}
