package model

import (
	"errors"
	"fmt"
	"strings"
)

type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusAssigned    AssetStatus = "assigned"
	AssetStatusRepossessed AssetStatus = "repossessed"
)

func (s AssetStatus) Valid() bool {
	switch s {
	case AssetStatusAvailable, AssetStatusAssigned, AssetStatusRepossessed:
		return true
	}
	return false
}

// Asset is a rentable item. Status is only ever written through the hire
// lifecycle.
type Asset struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Brand              string      `json:"brand"`
	RegistrationNumber string      `json:"registration_number"`
	Status             AssetStatus `json:"status"`
}

type AssetCreateRequest struct {
	Name               string `json:"name"`
	Brand              string `json:"brand"`
	RegistrationNumber string `json:"registration_number"`
}

func (p *AssetCreateRequest) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.RegistrationNumber = strings.ToUpper(strings.TrimSpace(p.RegistrationNumber))
}

func (p AssetCreateRequest) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Brand == "" {
		errs = append(errs, errors.New("brand is required"))
	}
	if p.RegistrationNumber == "" {
		errs = append(errs, errors.New("registration_number is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

type AssetFilter struct {
	Status *AssetStatus
	Search string // matches name, brand or registration number
	Limit  int
	Offset int
}
