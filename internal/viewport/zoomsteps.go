package viewport

// zoomStepRange describes a run of zoom steps in percent.
type zoomStepRange struct {
	start, stop, step int
}

// Percent ranges for the zoom step table. Dense near 1:1 where small
// changes matter, coarse at the extremes.
var zoomStepRanges = []zoomStepRange{
	{15, 50, 7},
	{50, 100, 10},
	{100, 200, 25},
	{200, 600, 100},
	{600, 1000, 200},
	{1000, 2000, 500},
	{2000, 5001, 1000},
}

// ZoomSteps is the fixed ascending table of zoom multipliers used by
// ZoomIn/ZoomOut, from 0.15 up to 50. Never mutated after init.
var ZoomSteps = buildZoomSteps()

func buildZoomSteps() []float64 {
	var steps []float64
	for _, r := range zoomStepRanges {
		for pct := r.start; pct < r.stop; pct += r.step {
			steps = append(steps, float64(pct)/100)
		}
	}
	return steps
}

// StepAbove returns the first table step strictly greater than z.
// ok is false when z is at or beyond the top of the table.
func StepAbove(z float64) (step float64, ok bool) {
	for _, s := range ZoomSteps {
		if s > z {
			return s, true
		}
	}
	return 0, false
}

// StepBelow returns the first table step strictly less than z, scanning
// downward. ok is false when z is at or below the bottom of the table.
func StepBelow(z float64) (step float64, ok bool) {
	for i := len(ZoomSteps) - 1; i >= 0; i-- {
		if ZoomSteps[i] < z {
			return ZoomSteps[i], true
		}
	}
	return 0, false
}
