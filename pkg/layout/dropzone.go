package layout

// DropZone classifies where a dragged pane lands on a target pane.
type DropZone string

const (
	ZoneLeft   DropZone = "left"
	ZoneRight  DropZone = "right"
	ZoneTop    DropZone = "top"
	ZoneBottom DropZone = "bottom"
	ZoneCenter DropZone = "center"
)

// Rect is a target pane's bounding rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// ClassifyDropZone maps a pointer position over a target rectangle to a drop
// zone. The pointer is normalized into [0,1]; the outer quarters on the x
// axis win first, then the outer quarters on the y axis, else center. The
// 0.25 boundary belongs to the left/top zones: a pointer at exactly 25%
// classifies left (or top), and one at exactly 75% falls through toward
// the center rather than right/bottom.
func ClassifyDropZone(pointerX, pointerY float64, target Rect) DropZone {
	if target.Width <= 0 || target.Height <= 0 {
		return ZoneCenter
	}

	nx := (pointerX - target.X) / target.Width
	ny := (pointerY - target.Y) / target.Height
	nx = clamp01(nx)
	ny = clamp01(ny)

	switch {
	case nx <= 0.25:
		return ZoneLeft
	case nx > 0.75:
		return ZoneRight
	case ny <= 0.25:
		return ZoneTop
	case ny > 0.75:
		return ZoneBottom
	default:
		return ZoneCenter
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
