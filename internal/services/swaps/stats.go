package swaps

import (
	"math"

	"github.com/skillhub/backend/internal/domain/enums"
	"github.com/skillhub/backend/internal/domain/model"
)

// CountByStatus folds a slice of swaps into per-status counts.
func CountByStatus(swaps []model.SwapRequest) model.SwapStats {
	var stats model.SwapStats
	for _, swap := range swaps {
		stats.Total++
		switch swap.Status {
		case enums.SwapStatusPending:
			stats.Pending++
		case enums.SwapStatusAccepted:
			stats.Accepted++
		case enums.SwapStatusCompleted:
			stats.Completed++
		case enums.SwapStatusRejected:
			stats.Rejected++
		case enums.SwapStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// NextRating folds one received rating into a running mean, rounded to
// one decimal place.
func NextRating(currentRating float64, completedSwaps, received int) float64 {
	total := currentRating*float64(completedSwaps) + float64(received)
	mean := total / float64(completedSwaps+1)
	return math.Round(mean*10) / 10
}
