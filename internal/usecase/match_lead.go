package usecase

import (
	"context"
	"log"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/geo"
)

// MatchLeadUseCase ranks skill-eligible workers by haversine distance to the
// lead. It is a pure read: no persistent state changes, safe to invoke
// repeatedly and concurrently.
type MatchLeadUseCase struct {
	Workers entity.WorkerRepositoryInterface
}

func NewMatchLeadUseCase(workers entity.WorkerRepositoryInterface) *MatchLeadUseCase {
	return &MatchLeadUseCase{Workers: workers}
}

func (uc *MatchLeadUseCase) Execute(ctx context.Context, lead *entity.Lead) (MatchResult, error) {
	origin := geo.Coordinate{Lat: lead.Lat, Lon: lead.Lon}
	if !origin.Valid() {
		return MatchResult{}, &geo.InvalidCoordinateError{Lat: lead.Lat, Lon: lead.Lon}
	}

	candidates, err := uc.Workers.FindCandidates(ctx, lead.Service)
	if err != nil {
		return MatchResult{}, storageErr("find candidates", err)
	}

	if len(candidates) == 0 {
		total, err := uc.Workers.CountBySkill(ctx, lead.Service)
		if err != nil {
			return MatchResult{}, storageErr("count by skill", err)
		}
		if total > 0 {
			return MatchResult{Outcome: MatchOutcomeNoActiveWorker}, nil
		}
		return MatchResult{Outcome: MatchOutcomeNoEligibleWorker}, nil
	}

	var best *entity.Worker
	var bestDistance float64

	for i := range candidates {
		w := &candidates[i]

		d, err := geo.Distance(origin, geo.Coordinate{Lat: w.Lat, Lon: w.Lon})
		if err != nil {
			// Coordinates are validated on import; a bad row here is a
			// data problem, not a reason to fail the whole match.
			log.Printf("[match] skipping worker %s: %v", w.ID, err)
			continue
		}

		// Exact distance ties break toward the lower worker id, so the
		// result is deterministic for any candidate ordering.
		if best == nil || d < bestDistance || (d == bestDistance && w.ID < best.ID) {
			best = w
			bestDistance = d
		}
	}

	if best == nil {
		return MatchResult{Outcome: MatchOutcomeNoEligibleWorker}, nil
	}

	return MatchResult{
		Outcome:    MatchOutcomeMatched,
		Worker:     best,
		DistanceKM: bestDistance,
	}, nil
}
