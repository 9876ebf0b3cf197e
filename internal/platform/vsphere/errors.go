package vsphere

import (
	"errors"
	"fmt"
)

// NotFoundError reports that no object of Kind is named Name.
type NotFoundError struct {
	Kind Kind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find object of type %s and name %s", e.Kind, e.Name)
}

// PlatformTaskError reports a failed vCenter operation on an object.
type PlatformTaskError struct {
	Op     string
	Object string
	Err    error
}

func (e *PlatformTaskError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Object, e.Err)
}

func (e *PlatformTaskError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error indicates an object was not found.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTaskError checks if an error came from a failed vCenter operation.
func IsTaskError(err error) bool {
	var te *PlatformTaskError
	return errors.As(err, &te)
}

func taskError(op string, obj Ref, err error) error {
	if err == nil {
		return nil
	}
	name := obj.Name
	if name == "" {
		name = obj.ID
	}
	return &PlatformTaskError{Op: op, Object: name, Err: err}
}
