package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// HireStatus is the lifecycle state of a hire.
type HireStatus string

const (
	HireStatusActive      HireStatus = "active"
	HireStatusPaid        HireStatus = "paid"
	HireStatusOverdue     HireStatus = "overdue"
	HireStatusRepossessed HireStatus = "repossessed"
)

func ParseHireStatus(s string) (HireStatus, error) {
	st := HireStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

func (s HireStatus) Valid() bool {
	_, ok := assetProjection[s]
	return ok
}

var assetProjection = map[HireStatus]AssetStatus{
	HireStatusActive:      AssetStatusAssigned,
	HireStatusPaid:        AssetStatusAssigned,
	HireStatusOverdue:     AssetStatusRepossessed,
	HireStatusRepossessed: AssetStatusRepossessed,
}

// AssetStatus is the status the hired asset must have while the hire is in
// state s.
func (s HireStatus) AssetStatus() (AssetStatus, error) {
	a, ok := assetProjection[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return a, nil
}

// ReferenceLength is the length of a hire's public billing reference.
const ReferenceLength = 12

type Hire struct {
	ID        int64           `json:"id"`
	PersonID  int64           `json:"person_id"`
	AssetID   int64           `json:"asset_id"`
	HireDate  time.Time       `json:"hire_date"`
	DueAt     time.Time       `json:"due_at"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	Status    HireStatus      `json:"status"`
	Reference string          `json:"reference"`
	CreatedAt time.Time       `json:"created_at"`
}

type HireCreateRequest struct {
	PersonID  int64           `json:"person_id"`
	AssetID   int64           `json:"asset_id"`
	HireDate  *time.Time      `json:"hire_date"`
	DueAt     time.Time       `json:"due_at"`
	DailyRate decimal.Decimal `json:"daily_rate"`
}

func (p HireCreateRequest) Validate() error {
	var errs []error
	if p.PersonID == 0 {
		errs = append(errs, errors.New("person_id is required"))
	}
	if p.AssetID == 0 {
		errs = append(errs, errors.New("asset_id is required"))
	}
	if p.DueAt.IsZero() {
		errs = append(errs, errors.New("due_at is required"))
	}
	if err := validateRate(p.DailyRate); err != nil {
		errs = append(errs, err)
	}
	if p.HireDate != nil && !p.DueAt.IsZero() && p.DueAt.Before(*p.HireDate) {
		errs = append(errs, errors.New("due_at is before hire_date"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

// HireTermsUpdate is the only mutable part of a hire besides its status.
type HireTermsUpdate struct {
	DueAt     *time.Time       `json:"due_at"`
	DailyRate *decimal.Decimal `json:"daily_rate"`
}

func (p HireTermsUpdate) Validate() error {
	if p.DueAt == nil && p.DailyRate == nil {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if p.DailyRate != nil {
		if err := validateRate(*p.DailyRate); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return nil
}

// MaxMoney is the largest value a numeric(10,2) money column holds.
var MaxMoney = decimal.RequireFromString("99999999.99")

func validateMoney(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%s must be positive", field)
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("%s has more than 2 decimal places", field)
	}
	if d.GreaterThan(MaxMoney) {
		return fmt.Errorf("%s exceeds %s", field, MaxMoney)
	}
	return nil
}

func validateRate(rate decimal.Decimal) error {
	return validateMoney("daily_rate", rate)
}

// HireFilter narrows hire listings. Search matches the reference, the
// hirer's full name or the asset registration number.
type HireFilter struct {
	Search    string
	Statuses  []HireStatus
	PersonID  *int64
	AssetID   *int64
	DueBefore *time.Time
	Limit     int
	Offset    int
	Desc      bool // order by hire_date
}
