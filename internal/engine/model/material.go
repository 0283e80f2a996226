package model

import (
	"encoding/json"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/engine/texture"
	"github.com/Faultbox/midgard-gltf/internal/gpu"
	"github.com/Faultbox/midgard-gltf/internal/logger"
)

// ExtClearcoat is the glTF extension carrying clearcoat parameters.
const ExtClearcoat = "KHR_materials_clearcoat"

type clearcoatExt struct {
	ClearcoatFactor          float32 `json:"clearcoatFactor"`
	ClearcoatRoughnessFactor float32 `json:"clearcoatRoughnessFactor"`
}

// loadMaterials builds the material table in file order. Mesh material
// references are positions in this slice.
func loadMaterials(doc *gltf.Document, textures *texture.Loader, ones gpu.Texture) []Material {
	materials := make([]Material, len(doc.Materials))
	for i, m := range doc.Materials {
		if m == nil {
			materials[i] = DefaultMaterial(ones)
			continue
		}
		materials[i] = loadMaterial(m, textures, ones)
	}
	return materials
}

func loadMaterial(m *gltf.Material, textures *texture.Loader, ones gpu.Texture) Material {
	var mat Material

	if pbr := m.PBRMetallicRoughness; pbr != nil {
		mat.BaseColor = [4]float32{1, 1, 1, 1}
		if pbr.BaseColorFactor != nil {
			for i, v := range pbr.BaseColorFactor {
				mat.BaseColor[i] = float32(v)
			}
		}
		mat.MetallicFactor = 1
		if pbr.MetallicFactor != nil {
			mat.MetallicFactor = float32(*pbr.MetallicFactor)
		}
		mat.RoughnessFactor = 1
		if pbr.RoughnessFactor != nil {
			mat.RoughnessFactor = float32(*pbr.RoughnessFactor)
		}
		mat.BaseColorTex = textures.Load(textureIndex(pbr.BaseColorTexture), true)
		mat.MetallicRoughnessTex = textures.Load(textureIndex(pbr.MetallicRoughnessTexture), false)
	} else {
		mat = DefaultMaterial(ones)
	}
	mat.Name = m.Name

	if cc, ok := clearcoat(m.Extensions); ok {
		mat.Clearcoat = cc.ClearcoatFactor
		mat.ClearcoatRoughness = cc.ClearcoatRoughnessFactor
	}

	if m.NormalTexture != nil {
		mat.NormalTex = textures.Load(m.NormalTexture.Index, false)
	}
	if m.OcclusionTexture != nil {
		mat.OcclusionTex = textures.Load(m.OcclusionTexture.Index, false)
	}
	mat.EmissiveTex = textures.Load(textureIndex(m.EmissiveTexture), true)
	for i, v := range m.EmissiveFactor {
		mat.EmissiveFactor[i] = float32(v)
	}

	return mat
}

func textureIndex(ti *gltf.TextureInfo) *int {
	if ti == nil {
		return nil
	}
	idx := ti.Index
	return &idx
}

// clearcoat decodes the clearcoat extension. Unregistered extensions arrive
// as raw JSON; anything else is re-encoded first.
func clearcoat(ext gltf.Extensions) (clearcoatExt, bool) {
	var cc clearcoatExt
	v, ok := ext[ExtClearcoat]
	if !ok || v == nil {
		return cc, false
	}

	var raw []byte
	switch e := v.(type) {
	case json.RawMessage:
		raw = e
	case []byte:
		raw = e
	default:
		var err error
		if raw, err = json.Marshal(e); err != nil {
			logger.Warn("unreadable clearcoat extension", zap.Error(err))
			return cc, false
		}
	}

	if err := json.Unmarshal(raw, &cc); err != nil {
		logger.Warn("unreadable clearcoat extension", zap.Error(err))
		return clearcoatExt{}, false
	}
	return cc, true
}
