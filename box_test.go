package labelkit

import (
	"errors"
	"math"
	"testing"
)

func TestToNormalized(t *testing.T) {

	tests := []struct {
		name    string
		rect    Rect
		imgW    int
		imgH    int
		want    Box
		wantErr error
	}{
		{
			name: "centered box",
			rect: Rect{X0: 240, Y0: 160, X1: 400, Y1: 320},
			imgW: 640, imgH: 480,
			want: Box{CX: 0.5, CY: 0.5, W: 0.25, H: 1.0 / 3.0},
		},
		{
			name: "out of bounds clamped",
			rect: Rect{X0: -100, Y0: -50, X1: 320, Y1: 240},
			imgW: 640, imgH: 480,
			want: Box{CX: 0.25, CY: 0.25, W: 0.5, H: 0.5},
		},
		{
			name: "zero width rejected",
			rect: Rect{X0: 100, Y0: 100, X1: 100, Y1: 200},
			imgW: 640, imgH: 480,
			wantErr: ErrDegenerateBox,
		},
		{
			name: "inverted rect rejected",
			rect: Rect{X0: 200, Y0: 100, X1: 100, Y1: 200},
			imgW: 640, imgH: 480,
			wantErr: ErrDegenerateBox,
		},
		{
			name: "fully outside rejected",
			rect: Rect{X0: 700, Y0: 100, X1: 800, Y1: 200},
			imgW: 640, imgH: 480,
			wantErr: ErrDegenerateBox,
		},
		{
			name: "zero image dimensions",
			rect: Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			imgW: 0, imgH: 480,
			wantErr: ErrInvalidGeometry,
		},
		{
			name: "negative image dimensions",
			rect: Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			imgW: 640, imgH: -1,
			wantErr: ErrInvalidGeometry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			got, err := ToNormalized(tc.rect, tc.imgW, tc.imgH)

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			const tol = 1e-9

			if math.Abs(got.CX-tc.want.CX) > tol || math.Abs(got.CY-tc.want.CY) > tol ||
				math.Abs(got.W-tc.want.W) > tol || math.Abs(got.H-tc.want.H) > tol {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestToPixelsRoundTrip(t *testing.T) {

	// round trip tolerance in normalized space
	const tol = 1e-6

	tests := []struct {
		name string
		rect Rect
		imgW int
		imgH int
	}{
		{"square image", Rect{X0: 32, Y0: 64, X1: 128, Y1: 256}, 640, 640},
		{"wide image", Rect{X0: 0, Y0: 0, X1: 1280, Y1: 720}, 1280, 720},
		{"fractional corners", Rect{X0: 10.5, Y0: 20.25, X1: 300.75, Y1: 410.125}, 1920, 1080},
		{"tiny box", Rect{X0: 100, Y0: 100, X1: 101, Y1: 101}, 4096, 2160},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			b, err := ToNormalized(tc.rect, tc.imgW, tc.imgH)

			if err != nil {
				t.Fatalf("ToNormalized: %v", err)
			}

			r, err := ToPixels(b, tc.imgW, tc.imgH)

			if err != nil {
				t.Fatalf("ToPixels: %v", err)
			}

			b2, err := ToNormalized(r, tc.imgW, tc.imgH)

			if err != nil {
				t.Fatalf("ToNormalized round trip: %v", err)
			}

			if math.Abs(b2.CX-b.CX) > tol || math.Abs(b2.CY-b.CY) > tol ||
				math.Abs(b2.W-b.W) > tol || math.Abs(b2.H-b.H) > tol {
				t.Errorf("round trip drifted: %+v vs %+v", b2, b)
			}
		})
	}
}

func TestClampNormalized(t *testing.T) {

	tests := []struct {
		name string
		in   Box
		want Box
	}{
		{
			name: "already valid",
			in:   Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2},
			want: Box{CX: 0.5, CY: 0.5, W: 0.2, H: 0.2},
		},
		{
			name: "width shrunk at left edge",
			in:   Box{CX: 0.05, CY: 0.5, W: 0.5, H: 0.2},
			want: Box{CX: 0.05, CY: 0.5, W: 0.1, H: 0.2},
		},
		{
			name: "height shrunk at bottom edge",
			in:   Box{CX: 0.5, CY: 0.95, W: 0.2, H: 0.5},
			want: Box{CX: 0.5, CY: 0.95, W: 0.2, H: 0.1},
		},
		{
			name: "center clamped with floor extent",
			in:   Box{CX: 1.2, CY: -0.1, W: 0.3, H: 0.3},
			want: Box{CX: 1, CY: 0, W: minExtent, H: minExtent},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			got := ClampNormalized(tc.in)

			const tol = 1e-9

			if math.Abs(got.CX-tc.want.CX) > tol || math.Abs(got.CY-tc.want.CY) > tol ||
				math.Abs(got.W-tc.want.W) > tol || math.Abs(got.H-tc.want.H) > tol {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}

			if got.W <= 0 || got.H <= 0 {
				t.Errorf("clamped box degenerated: %+v", got)
			}
		})
	}
}

func TestBoxEqualIgnoresSelected(t *testing.T) {

	a := Box{Class: 1, CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}
	b := a
	b.Selected = true

	if !a.Equal(b) {
		t.Error("Selected flag must be excluded from equality")
	}

	c := a
	c.CX = 0.6

	if a.Equal(c) {
		t.Error("boxes with different coordinates compared equal")
	}
}

func TestBoxCloseTo(t *testing.T) {

	base := Box{Class: 2, CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}

	near := Box{Class: 2, CX: 0.51, CY: 0.49, W: 0.21, H: 0.19}
	if !base.CloseTo(near, 0.02) {
		t.Error("boxes within tolerance not detected as close")
	}

	far := Box{Class: 2, CX: 0.6, CY: 0.5, W: 0.2, H: 0.2}
	if base.CloseTo(far, 0.02) {
		t.Error("boxes outside tolerance detected as close")
	}

	otherClass := Box{Class: 3, CX: 0.5, CY: 0.5, W: 0.2, H: 0.2}
	if base.CloseTo(otherClass, 0.02) {
		t.Error("boxes of different classes must never be close")
	}
}
