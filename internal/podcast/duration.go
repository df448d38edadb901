package podcast

// charsPerMinute is the assumed reading-equivalent rate of source text.
const charsPerMinute = 2000

// durationSteps maps estimated input minutes to a recommended episode
// length. Breakpoints are inclusive upper bounds; anything past the
// last one clamps to ten minutes.
var durationSteps = []struct {
	upTo    float64
	minutes int
}{
	{1.5, 1},
	{2.5, 2},
	{3.5, 3},
	{4.5, 4},
	{6, 5},
	{7.5, 6},
	{9, 7},
	{11, 8},
	{13, 9},
}

// EstimateDuration recommends a target episode length in whole minutes
// for the given aggregate source content length. The result is
// monotonically non-decreasing in contentLength and always in [1, 10].
func EstimateDuration(contentLength int) int {
	if contentLength < 0 {
		contentLength = 0
	}

	estimated := float64(contentLength) / charsPerMinute
	for _, step := range durationSteps {
		if estimated <= step.upTo {
			return step.minutes
		}
	}

	return 10
}
