// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ObjectVertexShader is the vertex shader for glTF objects.
//
//go:embed gltf.vert
var ObjectVertexShader string

// ObjectFragmentShader is the metallic-roughness fragment shader for glTF objects.
//
//go:embed gltf_pbr.frag
var ObjectFragmentShader string
