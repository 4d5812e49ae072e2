package services

import (
	"context"

	"github.com/nimasrn/hire-gateway/internal/model"
)

// RegistryService manages the people and assets hires are written against.
type RegistryService struct {
	persons PersonRepository
	assets  AssetRepository
}

func NewRegistryService(persons PersonRepository, assets AssetRepository) *RegistryService {
	return &RegistryService{
		persons: persons,
		assets:  assets,
	}
}

func (s *RegistryService) CreatePerson(ctx context.Context, req model.PersonCreateRequest) (*model.Person, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.persons.Create(ctx, &model.Person{
		FullName:   req.FullName,
		NationalID: req.NationalID,
		UniqueID:   req.UniqueID,
		Phone:      req.Phone,
		Email:      req.Email,
	})
}

func (s *RegistryService) GetPerson(ctx context.Context, id int64) (*model.Person, error) {
	return s.persons.GetByID(ctx, id)
}

func (s *RegistryService) ListPersons(ctx context.Context, f model.PersonFilter) ([]*model.Person, int64, error) {
	return s.persons.List(ctx, f)
}

func (s *RegistryService) DeletePerson(ctx context.Context, id int64) error {
	return s.persons.Delete(ctx, id)
}

// CreateAsset always starts the asset as available; status is owned by the
// hire lifecycle from then on.
func (s *RegistryService) CreateAsset(ctx context.Context, req model.AssetCreateRequest) (*model.Asset, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.assets.Create(ctx, &model.Asset{
		Name:               req.Name,
		Brand:              req.Brand,
		RegistrationNumber: req.RegistrationNumber,
		Status:             model.AssetStatusAvailable,
	})
}

func (s *RegistryService) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	return s.assets.GetByID(ctx, id)
}

func (s *RegistryService) ListAssets(ctx context.Context, f model.AssetFilter) ([]*model.Asset, int64, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, model.ErrInvalidStatus
	}
	return s.assets.List(ctx, f)
}

func (s *RegistryService) DeleteAsset(ctx context.Context, id int64) error {
	return s.assets.Delete(ctx, id)
}
