package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDropZone(t *testing.T) {
	target := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name     string
		px, py   float64
		expected DropZone
	}{
		{"exact center", 50, 50, ZoneCenter},
		{"10% from left edge", 10, 50, ZoneLeft},
		{"near right edge", 90, 50, ZoneRight},
		{"near top edge", 50, 10, ZoneTop},
		{"near bottom edge", 50, 90, ZoneBottom},
		{"x boundary at exactly 25% is left", 25, 50, ZoneLeft},
		{"x boundary at exactly 75% is not right", 75, 50, ZoneCenter},
		{"y boundary at exactly 25% is top", 50, 25, ZoneTop},
		{"y boundary at exactly 75% is not bottom", 50, 75, ZoneCenter},
		{"corner prefers x axis", 10, 10, ZoneLeft},
		{"pointer outside clamps", -20, 50, ZoneLeft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyDropZone(tt.px, tt.py, target))
		})
	}
}

func TestClassifyDropZoneOffsetRect(t *testing.T) {
	target := Rect{X: 200, Y: 100, Width: 400, Height: 200}
	assert.Equal(t, ZoneCenter, ClassifyDropZone(400, 200, target))
	assert.Equal(t, ZoneLeft, ClassifyDropZone(240, 200, target))
	assert.Equal(t, ZoneBottom, ClassifyDropZone(400, 290, target))
}

func TestClassifyDropZoneDegenerateRect(t *testing.T) {
	assert.Equal(t, ZoneCenter, ClassifyDropZone(5, 5, Rect{Width: 0, Height: 0}))
}
