package model

import (
	"errors"
	"fmt"
)

// Error classes. Every domain error wraps exactly one of these so callers
// can classify with errors.Is without knowing the specific error.
var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrMalformedInput = errors.New("malformed input")
	ErrUpstream       = errors.New("upstream error")
)

var (
	ErrInvalidStatus       = fmt.Errorf("%w: unrecognized status", ErrValidation)
	ErrPersonNotFound      = fmt.Errorf("%w: person", ErrNotFound)
	ErrAssetNotFound       = fmt.Errorf("%w: asset", ErrNotFound)
	ErrHireNotFound        = fmt.Errorf("%w: hire", ErrNotFound)
	ErrAssetAssigned       = fmt.Errorf("%w: asset is already assigned", ErrConflict)
	ErrDuplicateReceipt    = fmt.Errorf("%w: mpesa receipt already recorded", ErrConflict)
	ErrDuplicateReference  = fmt.Errorf("%w: hire reference already in use", ErrConflict)
	ErrDuplicateNationalID = fmt.Errorf("%w: national id already registered", ErrConflict)
	ErrDuplicateUniqueID   = fmt.Errorf("%w: unique id already registered", ErrConflict)
	ErrDuplicateRegNumber  = fmt.Errorf("%w: registration number already registered", ErrConflict)
	ErrPersonInUse         = fmt.Errorf("%w: person is referenced by hires", ErrConflict)
	ErrAssetInUse          = fmt.Errorf("%w: asset is referenced by hires", ErrConflict)
	ErrHireHasPayments     = fmt.Errorf("%w: hire has payments", ErrConflict)
)
