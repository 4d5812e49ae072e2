package services

import (
	"context"
	"testing"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryService_Persons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	email := " jane@example.com "
	blank := "  "
	p, err := f.registry.CreatePerson(ctx, model.PersonCreateRequest{
		FullName:   "  Jane Njeri ",
		NationalID: "30111222",
		UniqueID:   &blank,
		Phone:      "254700000001",
		Email:      &email,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Njeri", p.FullName)
	assert.Nil(t, p.UniqueID)
	require.NotNil(t, p.Email)
	assert.Equal(t, "jane@example.com", *p.Email)

	_, err = f.registry.CreatePerson(ctx, model.PersonCreateRequest{FullName: "X", NationalID: "30111222", Phone: "1"})
	assert.ErrorIs(t, err, model.ErrDuplicateNationalID)

	bad := "not-an-email"
	_, err = f.registry.CreatePerson(ctx, model.PersonCreateRequest{FullName: "X", NationalID: "9", Phone: "1", Email: &bad})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.registry.CreatePerson(ctx, model.PersonCreateRequest{})
	assert.ErrorIs(t, err, model.ErrValidation)

	list, total, err := f.registry.ListPersons(ctx, model.PersonFilter{Search: "njeri"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, p.ID, list[0].ID)

	require.NoError(t, f.registry.DeletePerson(ctx, p.ID))
	_, err = f.registry.GetPerson(ctx, p.ID)
	assert.ErrorIs(t, err, model.ErrPersonNotFound)
}

func TestRegistryService_Assets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.registry.CreateAsset(ctx, model.AssetCreateRequest{Name: "Tuk tuk", Brand: "Bajaj", RegistrationNumber: " kdb 123a "})
	require.NoError(t, err)
	assert.Equal(t, "KDB 123A", a.RegistrationNumber)
	assert.Equal(t, model.AssetStatusAvailable, a.Status)

	_, err = f.registry.CreateAsset(ctx, model.AssetCreateRequest{Name: "Other", Brand: "Bajaj", RegistrationNumber: "KDB 123A"})
	assert.ErrorIs(t, err, model.ErrDuplicateRegNumber)

	bogus := model.AssetStatus("stolen")
	_, _, err = f.registry.ListAssets(ctx, model.AssetFilter{Status: &bogus})
	assert.ErrorIs(t, err, model.ErrInvalidStatus)

	h := f.activeHire(t, nextWeek())
	assert.ErrorIs(t, f.registry.DeleteAsset(ctx, h.AssetID), model.ErrAssetInUse)
	assert.ErrorIs(t, f.registry.DeletePerson(ctx, h.PersonID), model.ErrPersonInUse)

	require.NoError(t, f.registry.DeleteAsset(ctx, a.ID))
	_, err = f.registry.GetAsset(ctx, a.ID)
	assert.ErrorIs(t, err, model.ErrAssetNotFound)
}
