package kernel

import (
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// Vehicle is one of the physical assets a run can use.
type Vehicle string

const (
	Van       Vehicle = "van"
	Truck     Vehicle = "truck"
	CargoBike Vehicle = "cargo-bike"
)

// Vehicles returns the closed set in display order.
func Vehicles() []Vehicle {
	return []Vehicle{Van, Truck, CargoBike}
}

func ParseVehicle(s string) (Vehicle, error) {
	v := Vehicle(strings.ToLower(strings.TrimSpace(s)))
	if err := v.Validate(); err != nil {
		return "", err
	}
	return v, nil
}

func (v Vehicle) Validate() error {
	for _, known := range Vehicles() {
		if v == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("vehicle", fmt.Errorf("%q is not a known vehicle", string(v)))
}

func (v Vehicle) String() string {
	return string(v)
}
