package wheel

// Easing names the curve used to decelerate the wheel.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseOutQuad    Easing = "easeOutQuad"
	EaseOutCubic   Easing = "easeOutCubic"
	EaseInOutCubic Easing = "easeInOutCubic"
)

func (e Easing) valid() bool {
	switch e {
	case EaseLinear, EaseOutQuad, EaseOutCubic, EaseInOutCubic:
		return true
	}
	return false
}

// Apply maps progress t in [0,1] to eased progress in [0,1].
// Out-of-range t is clamped.
func (e Easing) Apply(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch e {
	case EaseOutQuad:
		// f(t) = 1 - (1 - t)^2
		return 1 - (1-t)*(1-t)
	case EaseOutCubic:
		// f(t) = 1 - (1 - t)^3, velocity 3(1-t)^2 reaches 0 at t=1
		u := 1 - t
		return 1 - u*u*u
	case EaseInOutCubic:
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - (-2*t+2)*(-2*t+2)*(-2*t+2)/2
	default:
		return t
	}
}
