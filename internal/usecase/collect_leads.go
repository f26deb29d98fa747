package usecase

import (
	"context"
	"log"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/infra/integration/nominatim"
)

// GeoDirectory is the external geospatial lookup. The concrete client owns
// rate limiting, caching and timeouts; this layer only sees results.
type GeoDirectory interface {
	Search(ctx context.Context, city, service string, limit int) ([]nominatim.Place, error)
}

type CollectLeadsUseCase struct {
	Leads     entity.LeadRepositoryInterface
	Directory GeoDirectory
}

func NewCollectLeadsUseCase(leads entity.LeadRepositoryInterface, directory GeoDirectory) *CollectLeadsUseCase {
	return &CollectLeadsUseCase{Leads: leads, Directory: directory}
}

func (uc *CollectLeadsUseCase) Execute(ctx context.Context, input CollectInput) (CollectOutput, error) {
	city := sanitizeString(input.City, 100)
	service := sanitizeString(input.Service, 100)

	if city == "" {
		return CollectOutput{}, ValidationError{Field: "city", Message: "is required"}
	}
	if service == "" {
		return CollectOutput{}, ValidationError{Field: "service", Message: "is required"}
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	places, err := uc.Directory.Search(ctx, city, service, limit)
	if err != nil {
		return CollectOutput{}, err
	}

	var out CollectOutput

	for _, place := range places {
		if place.ExternalID == "" || !isValidCoordinate(place.Lat, place.Lon) {
			out.Skipped++
			continue
		}

		name := sanitizeString(place.Name, MaxNameLength)
		if name == "" {
			name = "Unknown"
		}

		lead, err := entity.NewLead(name, service, city, place.ExternalID, "nominatim", place.Lat, place.Lon)
		if err != nil {
			out.Skipped++
			continue
		}

		if phone := sanitizeString(place.Phone, MaxPhoneLength); isValidPhone(phone) {
			lead.Phone = phone
		}
		if email := sanitizeString(place.Email, MaxEmailLength); isValidEmail(email) {
			lead.Email = email
		}

		added, err := uc.Leads.Insert(ctx, lead)
		if err != nil {
			return out, storageErr("insert lead", err)
		}
		if added {
			out.Added++
		} else {
			out.Duplicates++
		}
	}

	log.Printf("[collect] %q in %q: %d added, %d duplicates, %d skipped", service, city, out.Added, out.Duplicates, out.Skipped)

	return out, nil
}
