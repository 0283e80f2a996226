package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	// Translation lives in column 4 (indices 12, 13, 14)
	if got := m.Translation(); got != [3]float32{5, 10, 15} {
		t.Errorf("Translate: got %v, want (5, 10, 15)", got)
	}
}

func TestMulComposesTranslations(t *testing.T) {
	parent := Translate(0, 2, 0)
	child := Translate(1, 0, 0)

	got := parent.Mul(child).Translation()
	if got != [3]float32{1, 2, 0} {
		t.Errorf("parent * child translation = %v, want (1, 2, 0)", got)
	}
}

func TestMulAppliesParentRotationToChildTranslation(t *testing.T) {
	// 90 degrees about Z: child offset (1,0,0) lands on (0,1,0) in parent space.
	s := float32(math.Sqrt2 / 2)
	parent := FromTRS([3]float32{}, [4]float32{0, 0, s, s}, [3]float32{1, 1, 1})
	child := Translate(1, 0, 0)

	got := parent.Mul(child).Translation()
	if abs(got[0]) > 1e-5 || abs(got[1]-1) > 1e-5 || abs(got[2]) > 1e-5 {
		t.Errorf("rotated child translation = %v, want (0, 1, 0)", got)
	}
}

func TestFromTRS(t *testing.T) {
	tests := []struct {
		name string
		t    [3]float32
		r    [4]float32
		s    [3]float32
		p    [3]float32
		want [3]float32
	}{
		{"identity", [3]float32{}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}, [3]float32{1, 2, 3}, [3]float32{1, 2, 3}},
		{"translate", [3]float32{1, 0, 0}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}, [3]float32{0, 0, 0}, [3]float32{1, 0, 0}},
		{"scale then translate", [3]float32{0, 1, 0}, [4]float32{0, 0, 0, 1}, [3]float32{2, 2, 2}, [3]float32{1, 1, 1}, [3]float32{2, 3, 2}},
		{"zero quaternion treated as identity", [3]float32{}, [4]float32{}, [3]float32{1, 1, 1}, [3]float32{4, 5, 6}, [3]float32{4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTRS(tt.t, tt.r, tt.s).TransformPoint(tt.p)
			for i := range got {
				if abs(got[i]-tt.want[i]) > 1e-5 {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFromFloat64(t *testing.T) {
	src := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 7, 8, 9, 1}
	m := FromFloat64(src)
	if m.Translation() != [3]float32{7, 8, 9} {
		t.Errorf("FromFloat64 translation = %v", m.Translation())
	}
	if m.IsZero() {
		t.Error("converted matrix should not be zero")
	}
	if !(Mat4{}).IsZero() {
		t.Error("zero value should report IsZero")
	}
}

func TestTransformPointScale(t *testing.T) {
	m := UniformScale(2)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestApproxEqual(t *testing.T) {
	a := Translate(1, 2, 3)
	b := a
	b[12] += 1e-7
	if !a.ApproxEqual(b, 1e-6) {
		t.Error("matrices within epsilon should be equal")
	}
	b[12] += 1
	if a.ApproxEqual(b, 1e-6) {
		t.Error("matrices outside epsilon should differ")
	}
}

func TestLength(t *testing.T) {
	if got := Length([3]float32{3, 4, 0}); got != 5 {
		t.Errorf("Length = %v, want 5", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestRotateY(t *testing.T) {
	got := RotateY(math.Pi / 2).TransformPoint([3]float32{1, 0, 0})
	want := [3]float32{0, 0, -1}
	for i := range got {
		if !ApproxEqual32(got[i], want[i], 1e-6) {
			t.Fatalf("RotateY(90°)·(1,0,0) = %v, want %v", got, want)
		}
	}
}
