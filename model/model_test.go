package model

import (
	"errors"
	"math"
	"testing"
)

func TestSlotTopsStrictlyDecreasing(t *testing.T) {
	g := DefaultGeometry()
	for i := 1; i < g.SlotCount; i++ {
		prev, cur := g.SlotRect(i-1), g.SlotRect(i)
		if cur.Y0 >= prev.Y0 {
			t.Errorf("slot %d top %v not below slot %d top %v", i, cur.Y0, i-1, prev.Y0)
		}
		if cur.Y1 > prev.Y0 {
			t.Errorf("slot %d [%v, %v] overlaps slot %d starting at %v", i, cur.Y0, cur.Y1, i-1, prev.Y0)
		}
	}
}

func TestSlotPositions(t *testing.T) {
	g := DefaultGeometry()
	tests := []struct {
		slot  int
		top   float64
		title float64
		sub   float64
	}{
		{0, 459, 516, 503},
		{1, 386.5, 443.5, 430.5},
		{4, 169, 226, 213},
	}
	for _, tt := range tests {
		if got := g.SlotTop(tt.slot); got != tt.top {
			t.Errorf("SlotTop(%d) = %v, want %v", tt.slot, got, tt.top)
		}
		if got := g.TitleBaseline(tt.slot); got != tt.title {
			t.Errorf("TitleBaseline(%d) = %v, want %v", tt.slot, got, tt.title)
		}
		if got := g.SubheaderBaseline(tt.slot); got != tt.sub {
			t.Errorf("SubheaderBaseline(%d) = %v, want %v", tt.slot, got, tt.sub)
		}
	}
}

func TestBulletBaselines(t *testing.T) {
	g := DefaultGeometry()
	if got := g.LineHeight(); math.Abs(got-13.2) > 1e-9 {
		t.Errorf("LineHeight = %v", got)
	}
	want := []float64{489, 475.8, 462.6}
	for j, w := range want {
		if got := g.BulletBaseline(0, j); math.Abs(got-w) > 1e-9 {
			t.Errorf("BulletBaseline(0, %d) = %v, want %v", j, got, w)
		}
	}
	if got := g.BulletCapacity(); got != 3 {
		t.Errorf("BulletCapacity = %d, want 3", got)
	}
	for j := 0; j < g.BulletCapacity(); j++ {
		if g.BulletBaseline(2, j) < g.SlotTop(2) {
			t.Errorf("bullet %d below its slot", j)
		}
	}
	if g.BulletBaseline(2, g.BulletCapacity()) >= g.SlotTop(2) {
		t.Error("first bullet past capacity should be below the slot")
	}
}

func TestBulletCapacity(t *testing.T) {
	tests := []struct {
		name        string
		bulletsDY   float64
		fontSize    float64
		lineSpacing float64
		want        int
	}{
		{"default", 30, 11, 1.2, 3},
		{"exact fit", 30, 10, 1, 4},
		{"first line on base", 0, 11, 1.2, 1},
		{"below base", -1, 11, 1.2, 0},
		{"zero spacing", 30, 11, 0, 0},
		{"tiny spacing", 30, 11, 1e-300, maxBullets},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGeometry()
			g.BulletsDY, g.FontSize, g.LineSpacing = tt.bulletsDY, tt.fontSize, tt.lineSpacing
			if got := g.BulletCapacity(); got != tt.want {
				t.Errorf("BulletCapacity = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCoordinateConversionIsInvolution(t *testing.T) {
	g := DefaultGeometry()
	for _, y := range []float64{0, 1.5, 396, 459, 516.25, 792, -10, 1000} {
		if got := g.ToBottomUp(g.ToTopDown(y)); got != y {
			t.Errorf("ToBottomUp(ToTopDown(%v)) = %v", y, got)
		}
		if got := g.ToTopDown(g.ToTopDown(y)); got != y {
			t.Errorf("ToTopDown twice (%v) = %v", y, got)
		}
		if got := g.ToBottomUp(g.ToBottomUp(y)); got != y {
			t.Errorf("ToBottomUp twice (%v) = %v", y, got)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultGeometry().Validate(); err != nil {
		t.Fatalf("default geometry invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Geometry)
	}{
		{"zero page", func(g *Geometry) { g.PageWidth = 0 }},
		{"no slots", func(g *Geometry) { g.SlotCount = 0 }},
		{"slot too short", func(g *Geometry) { g.SlotHeight = 60 }},
		{"empty link band", func(g *Geometry) { g.LinkDY1 = g.LinkDY0 }},
		{"link column off page", func(g *Geometry) { g.LinkRightX = 700 }},
		{"too many slots", func(g *Geometry) { g.SlotCount = 8 }},
		{"above page", func(g *Geometry) { g.YStart = 760 }},
		{"zero font", func(g *Geometry) { g.FontSize = 0 }},
		{"unnamed face", func(g *Geometry) { g.HeaderFace = "" }},
		{"shared face role", func(g *Geometry) { g.BodyFace = g.HeaderFace }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := DefaultGeometry()
			tt.modify(&g)
			err := g.Validate()
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("expected ErrInvalidGeometry, got %v", err)
			}
		})
	}
}

func TestRect(t *testing.T) {
	a := NewRect(10, 20, 0, 0)
	if a != (Rect{0, 0, 10, 20}) {
		t.Errorf("NewRect did not normalize: %+v", a)
	}
	b := Rect{5, 10, 15, 30}

	if got := a.Intersection(b); got != (Rect{5, 10, 10, 20}) {
		t.Errorf("Intersection = %+v", got)
	}
	if got := a.Union(b); got != (Rect{0, 0, 15, 30}) {
		t.Errorf("Union = %+v", got)
	}
	if got := a.Intersection(Rect{50, 50, 60, 60}); !got.IsEmpty() {
		t.Errorf("disjoint Intersection = %+v", got)
	}
	if got := a.HorizontalOverlap(b); got != 0.5 {
		t.Errorf("HorizontalOverlap = %v", got)
	}
	if got := a.VerticalOverlap(b); got != 0.5 {
		t.Errorf("VerticalOverlap = %v", got)
	}
	if got := b.FlipY(100).FlipY(100); got != b {
		t.Errorf("FlipY twice = %+v", got)
	}
	if got := b.FlipY(100); got != (Rect{5, 70, 15, 90}) {
		t.Errorf("FlipY = %+v", got)
	}
	if !a.Contains(Point{5, 5}) || a.Contains(Point{11, 5}) {
		t.Error("Contains")
	}
}

func TestMatrix(t *testing.T) {
	// Scale then translate.
	m := Matrix{2, 0, 0, 3, 0, 0}.Multiply(Translate(10, 20))
	if got := m.Transform(Point{1, 1}); got != (Point{12, 23}) {
		t.Errorf("Transform = %+v", got)
	}
	if got := Identity().Multiply(m); got != m {
		t.Errorf("identity product = %v", got)
	}
	r := m.TransformRect(Rect{0, 0, 1, 1})
	if r != (Rect{10, 20, 12, 23}) {
		t.Errorf("TransformRect = %+v", r)
	}
}
