package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/infra/integration/nominatim"
)

type fakeDirectory struct {
	places []nominatim.Place
	err    error

	gotCity    string
	gotService string
	gotLimit   int
}

func (f *fakeDirectory) Search(ctx context.Context, city, service string, limit int) ([]nominatim.Place, error) {
	f.gotCity = city
	f.gotService = service
	f.gotLimit = limit
	return f.places, f.err
}

func TestCollectLeadsStoresValidPlaces(t *testing.T) {
	directory := &fakeDirectory{
		places: []nominatim.Place{
			{ExternalID: "101", Name: "Bandra West Society", Lat: 19.06, Lon: 72.83, Phone: "+91 22 2640 0000"},
			{ExternalID: "102", Name: "Andheri East Complex", Lat: 19.11, Lon: 72.87, Email: "office@complex.example.com"},
		},
	}
	repo := newMemLeadRepo()
	uc := NewCollectLeadsUseCase(repo, directory)

	out, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})

	require.NoError(t, err)
	assert.Equal(t, CollectOutput{Added: 2}, out)
	assert.Equal(t, "Mumbai", directory.gotCity)
	assert.Equal(t, 20, directory.gotLimit) // default page size

	leads, _ := repo.List(context.Background(), 0)
	require.Len(t, leads, 2)
	for _, l := range leads {
		assert.Equal(t, entity.LeadStatusNew, l.Status)
		assert.Equal(t, "nominatim", l.Source)
		assert.Equal(t, "plumber", l.Service)
	}
}

func TestCollectLeadsDeduplicatesByExternalID(t *testing.T) {
	directory := &fakeDirectory{
		places: []nominatim.Place{
			{ExternalID: "101", Name: "Bandra West Society", Lat: 19.06, Lon: 72.83},
		},
	}
	repo := newMemLeadRepo()
	uc := NewCollectLeadsUseCase(repo, directory)

	first, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)

	second, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, second.Duplicates)

	leads, _ := repo.List(context.Background(), 0)
	assert.Len(t, leads, 1)
}

func TestCollectLeadsSkipsInvalidRecords(t *testing.T) {
	directory := &fakeDirectory{
		places: []nominatim.Place{
			{ExternalID: "", Name: "No id", Lat: 19.0, Lon: 72.8},
			{ExternalID: "103", Name: "Broken coords", Lat: 123.0, Lon: 72.8},
			{ExternalID: "104", Name: "Good", Lat: 19.0, Lon: 72.8},
		},
	}
	repo := newMemLeadRepo()
	uc := NewCollectLeadsUseCase(repo, directory)

	out, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Added)
	assert.Equal(t, 2, out.Skipped)
}

func TestCollectLeadsKeepsOnlyWellFormedContacts(t *testing.T) {
	directory := &fakeDirectory{
		places: []nominatim.Place{
			{ExternalID: "105", Name: "Mixed contacts", Lat: 19.0, Lon: 72.8, Phone: "call us!", Email: "valid@example.com"},
		},
	}
	repo := newMemLeadRepo()
	uc := NewCollectLeadsUseCase(repo, directory)

	_, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})
	require.NoError(t, err)

	leads, _ := repo.List(context.Background(), 0)
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].Phone)
	assert.Equal(t, "valid@example.com", leads[0].Email)
}

func TestCollectLeadsValidatesInput(t *testing.T) {
	uc := NewCollectLeadsUseCase(newMemLeadRepo(), &fakeDirectory{})

	var verr ValidationError

	_, err := uc.Execute(context.Background(), CollectInput{Service: "plumber"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "city", verr.Field)

	_, err = uc.Execute(context.Background(), CollectInput{City: "Mumbai"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "service", verr.Field)
}

func TestCollectLeadsPropagatesDirectoryFailure(t *testing.T) {
	boom := errors.New("nominatim returned status 503")
	uc := NewCollectLeadsUseCase(newMemLeadRepo(), &fakeDirectory{err: boom})

	_, err := uc.Execute(context.Background(), CollectInput{City: "Mumbai", Service: "plumber"})

	assert.ErrorIs(t, err, boom)
}
