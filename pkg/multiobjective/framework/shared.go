package framework

// NonDominatedSort splits the points into successive non-dominated fronts.
// Fronts hold indices into points; an empty input yields no fronts.
func NonDominatedSort(points []ObjectiveSpacePoint) [][]int {
	var fronts [][]int
	dominated := make([][]int, len(points))
	domCount := make([]int, len(points))

	// Calculate domination for each point
	for i := 0; i < len(points); i++ {
		for j := 0; j < len(points); j++ {
			if i != j {
				if Dominates(points[i], points[j]) {
					dominated[i] = append(dominated[i], j)
				} else if Dominates(points[j], points[i]) {
					domCount[i]++
				}
			}
		}
	}

	// Find first front
	currentFront := []int{}
	for i := 0; i < len(points); i++ {
		if domCount[i] == 0 {
			currentFront = append(currentFront, i)
		}
	}

	// Find subsequent fronts
	for len(currentFront) > 0 {
		fronts = append(fronts, currentFront)
		nextFront := []int{}
		for _, idx := range currentFront {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					nextFront = append(nextFront, dominatedIdx)
				}
			}
		}
		currentFront = nextFront
	}

	return fronts
}

// ParetoFront returns the non-dominated points, dropping exact duplicates.
func ParetoFront(points []ObjectiveSpacePoint) []ObjectiveSpacePoint {
	fronts := NonDominatedSort(points)
	if len(fronts) == 0 {
		return nil
	}
	var front []ObjectiveSpacePoint
	for _, idx := range fronts[0] {
		if !containsPoint(front, points[idx]) {
			front = append(front, points[idx])
		}
	}
	return front
}

// Dominates checks if point a dominates point b when every objective is minimised:
// a is no worse everywhere and strictly better somewhere.
func Dominates(a, b ObjectiveSpacePoint) bool {
	better := false
	for i := 0; i < len(a); i++ {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// WeaklyDominates is Dominates extended with equality.
func WeaklyDominates(a, b ObjectiveSpacePoint) bool {
	for i := 0; i < len(a); i++ {
		if a[i] > b[i] {
			return false
		}
	}
	return true
}

func containsPoint(points []ObjectiveSpacePoint, p ObjectiveSpacePoint) bool {
	for _, q := range points {
		if WeaklyDominates(q, p) && WeaklyDominates(p, q) {
			return true
		}
	}
	return false
}
