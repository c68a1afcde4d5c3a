// Package scoring maps finishing positions to championship points.
package scoring

// Points awarded by finishing position, index 0 = P1.
var (
	racePoints   = []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}
	sprintPoints = []int{8, 7, 6, 5, 4, 3, 2, 1}
)

// RacePoints returns the points for a main-race finishing position. Positions
// outside 1-10, or a nil position (DNF/DNS), score zero.
func RacePoints(position *int) int {
	return lookup(racePoints, position)
}

// SprintPoints returns the points for a sprint finishing position. Positions
// outside 1-8, or a nil position, score zero.
func SprintPoints(position *int) int {
	return lookup(sprintPoints, position)
}

func lookup(table []int, position *int) int {
	if position == nil {
		return 0
	}
	p := *position
	if p < 1 || p > len(table) {
		return 0
	}
	return table[p-1]
}
