package detection

import (
	"encoding/json"
	"fmt"
	"math"
)

// Box is an axis-aligned bounding box in pixel coordinates, relative to the
// origin of the image the detector was given. (X1, Y1) is the top-left
// corner and (X2, Y2) the bottom-right corner.
type Box struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// Scale multiplies the x coordinates by sx and the y coordinates by sy.
func (b Box) Scale(sx, sy float64) Box {
	return Box{
		X1: b.X1 * sx,
		Y1: b.Y1 * sy,
		X2: b.X2 * sx,
		Y2: b.Y2 * sy,
	}
}

// Ints converts the corners to integer pixel positions. Fractions are
// truncated toward zero, values beyond the int range saturate and NaN
// becomes 0.
func (b Box) Ints() (x1, y1, x2, y2 int) {
	return toInt(b.X1), toInt(b.Y1), toInt(b.X2), toInt(b.Y2)
}

// Clip returns the integer pixel bounds of b inside a width x height image,
// with corners reordered and clamped to [0, width-1] x [0, height-1]. Both
// corners are inclusive. ok is false when b has a NaN coordinate or lies
// entirely outside the image.
func (b Box) Clip(width, height int) (x1, y1, x2, y2 int, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, 0, 0, false
	}
	fx1, fy1, fx2, fy2 := math.Trunc(b.X1), math.Trunc(b.Y1), math.Trunc(b.X2), math.Trunc(b.Y2)
	if math.IsNaN(fx1) || math.IsNaN(fy1) || math.IsNaN(fx2) || math.IsNaN(fy2) {
		return 0, 0, 0, 0, false
	}
	if fx1 > fx2 {
		fx1, fx2 = fx2, fx1
	}
	if fy1 > fy2 {
		fy1, fy2 = fy2, fy1
	}

	maxX, maxY := float64(width-1), float64(height-1)
	if fx2 < 0 || fy2 < 0 || fx1 > maxX || fy1 > maxY {
		return 0, 0, 0, 0, false
	}
	return int(math.Max(fx1, 0)), int(math.Max(fy1, 0)),
		int(math.Min(fx2, maxX)), int(math.Min(fy2, maxY)), true
}

func toInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt:
		return math.MaxInt
	case v <= math.MinInt:
		return math.MinInt
	}
	return int(v)
}

// MarshalJSON encodes the box as [x1, y1, x2, y2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

// UnmarshalJSON decodes a box from a [x1, y1, x2, y2] array.
func (b *Box) UnmarshalJSON(data []byte) error {
	var coords []float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("invalid box: %w", err)
	}
	if len(coords) != 4 {
		return fmt.Errorf("invalid box: expected 4 coordinates, got %d", len(coords))
	}
	*b = Box{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
	return nil
}

func (b Box) String() string {
	x1, y1, x2, y2 := b.Ints()
	return fmt.Sprintf("[%d, %d, %d, %d]", x1, y1, x2, y2)
}

// Detection is a single predicted object instance.
type Detection struct {
	// Label is the class name reported by the model, e.g. "plate".
	Label string `json:"label"`

	// Confidence is the model score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Box locates the object.
	Box Box `json:"box"`
}
