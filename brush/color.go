package brush

import "math"

// hsvToRGB converts a color with h, s and v in [0, 1]. Hue wraps around.
func hsvToRGB(h, s, v float64) (r, g, b float64) {
	h -= math.Floor(h)
	s = clamp(s, 0, 1)
	v = clamp(v, 0, 1)
	if s == 0 {
		return v, v, v
	}

	h *= 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
