package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrHostContractViolation is returned when the scene is driven out of order: attached twice,
	// attached or configured after dispose, or attached to a host that already holds the layer.
	ErrHostContractViolation = errors.New("scene: host contract violation")

	// ErrResourceAcquisition matches every *ResourceAcquisitionError through errors.Is.
	ErrResourceAcquisition = errors.New("scene: resource acquisition failed")

	// ErrDisposed is returned by WaitForData when the scene was disposed before data arrived.
	ErrDisposed = errors.New("scene: disposed")

	// ErrNoSource is reported by WaitForData when the scene was built without a point source.
	ErrNoSource = errors.New("scene: no point source")
)

// ResourceAcquisitionError reports which GPU resource could not be created while attaching.
type ResourceAcquisitionError struct {
	Resource string
	Err      error
}

func (e *ResourceAcquisitionError) Error() string {
	return fmt.Sprintf("scene: acquire %s: %v", e.Resource, e.Err)
}

func (e *ResourceAcquisitionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrResourceAcquisition) hold for every ResourceAcquisitionError.
func (e *ResourceAcquisitionError) Is(target error) bool {
	return target == ErrResourceAcquisition
}

func contractViolation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrHostContractViolation}, args...)...)
}
