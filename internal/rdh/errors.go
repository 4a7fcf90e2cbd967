package rdh

import (
	"errors"
	"fmt"
)

// StatusError reports an operation the device accepted but answered
// with a returnValue other than OK.
type StatusError struct {
	Op     string
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: device returned %q", e.Op, e.Status)
}

// IsBusy reports whether err is a device status saying the management
// subsystem is held by another client right now.
func IsBusy(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == StatusBusy
}

func checkReturn(op, status string) error {
	if status == ReturnOK {
		return nil
	}
	return &StatusError{Op: op, Status: status}
}
