package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Person is a hirer.
type Person struct {
	ID         int64   `json:"id"`
	FullName   string  `json:"full_name"`
	NationalID string  `json:"national_id"`
	UniqueID   *string `json:"unique_id,omitempty"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email,omitempty"`
}

type PersonCreateRequest struct {
	FullName   string  `json:"full_name"`
	NationalID string  `json:"national_id"`
	UniqueID   *string `json:"unique_id"`
	Phone      string  `json:"phone"`
	Email      *string `json:"email"`
}

func (p *PersonCreateRequest) Normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.NationalID = strings.TrimSpace(p.NationalID)
	p.Phone = strings.TrimSpace(p.Phone)
	p.UniqueID = blankToNil(p.UniqueID)
	p.Email = blankToNil(p.Email)
}

func (p PersonCreateRequest) Validate() error {
	var errs []error
	if p.FullName == "" {
		errs = append(errs, errors.New("full_name is required"))
	}
	if p.NationalID == "" {
		errs = append(errs, errors.New("national_id is required"))
	}
	if p.Phone == "" {
		errs = append(errs, errors.New("phone is required"))
	}
	if p.Email != nil {
		if _, err := mail.ParseAddress(*p.Email); err != nil {
			errs = append(errs, errors.New("email is invalid"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

// PersonFilter controls List queries.
type PersonFilter struct {
	Search string // matches name, national id, unique id or phone
	Limit  int
	Offset int
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
