package wheel

import "time"

// tween interpolates a rotation from one absolute value to another.
type tween struct {
	from, to float64
	start    time.Time
	duration time.Duration
	easing   Easing
}

// progress is linear time progress in [0,1].
func (tw tween) progress(now time.Time) float64 {
	if tw.duration <= 0 {
		return 1
	}
	t := float64(now.Sub(tw.start)) / float64(tw.duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// at returns the eased rotation at now and whether the tween has finished.
func (tw tween) at(now time.Time) (float64, bool) {
	t := tw.progress(now)
	if t >= 1 {
		return tw.to, true
	}
	return tw.from + (tw.to-tw.from)*tw.easing.Apply(t), false
}
