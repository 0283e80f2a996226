package model

import (
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/midgard-gltf/pkg/math"
)

// LocalMatrix returns the node's transform relative to its parent.
// An explicit matrix wins; otherwise translation, rotation and scale are
// composed as T*R*S. Scale is taken as written, so a zero scale collapses
// the node and everything below it.
func LocalMatrix(n *gltf.Node) math.Mat4 {
	m := math.FromFloat64(n.Matrix)
	if !m.IsZero() && m != math.Identity() {
		return m
	}

	var t [3]float32
	for i, v := range n.Translation {
		t[i] = float32(v)
	}
	var r [4]float32
	for i, v := range n.Rotation {
		r[i] = float32(v)
	}
	var s [3]float32
	for i, v := range n.Scale {
		s[i] = float32(v)
	}
	return math.FromTRS(t, r, s)
}
