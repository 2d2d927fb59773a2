package model

import (
	"fmt"
	"sort"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"handsynth/internal/mathutil"
	"handsynth/internal/rig"
	"handsynth/internal/skin"
)

// weightSets lists the joint/weight attribute pairs read per vertex.
var weightSets = [][2]string{
	{gltf.JOINTS_0, gltf.WEIGHTS_0},
	{"JOINTS_1", "WEIGHTS_1"},
}

// readMesh merges all triangle primitives of a mesh into one vertex and
// index buffer and binds the skin weights.
func readMesh(doc *gltf.Document, meshIdx int, s *gltf.Skin, boneOf map[int]int, strategy skin.Strategy) (*rig.Mesh, error) {
	gm := doc.Meshes[meshIdx]
	out := &rig.Mesh{Bones: make(map[string]int)}
	for _, node := range s.Joints {
		out.Bones[nodeName(doc, node)] = boneOf[node]
	}

	perBone := make(map[int][]skin.VertexWeight)
	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		base := len(out.Vertices)
		n, err := readVertices(doc, p, out)
		if err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if err := readIndices(doc, p, out, base, n); err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if err := readWeights(doc, p, s, boneOf, base, perBone); err != nil {
			return nil, fmt.Errorf("primitive %d: %w", pi, err)
		}
		if out.Texture == "" && p.Material != nil {
			out.Texture = baseColorURI(doc, *p.Material)
		}
	}

	// Bind bone by bone in id order, each bone's vertices in index order.
	bones := make([]int, 0, len(perBone))
	for b := range perBone {
		bones = append(bones, b)
	}
	sort.Ints(bones)
	assign := make([]skin.BoneWeights, 0, len(bones))
	for _, b := range bones {
		assign = append(assign, skin.BoneWeights{Bone: b, Weights: perBone[b]})
	}
	if err := skin.Bind(out.Vertices, assign, strategy); err != nil {
		return nil, err
	}
	return out, nil
}

func readVertices(doc *gltf.Document, p *gltf.Primitive, out *rig.Mesh) (int, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return 0, fmt.Errorf("no POSITION attribute")
	}
	pos, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return 0, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if i, ok := p.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[i], nil); err != nil {
			return 0, fmt.Errorf("read normals: %w", err)
		}
	}
	var uvs [][2]float32
	if i, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[i], nil); err != nil {
			return 0, fmt.Errorf("read uvs: %w", err)
		}
	}

	for i, v := range pos {
		vert := skin.NewVertex(vec3(v))
		if i < len(normals) {
			vert.Normal = vec3(normals[i])
		}
		if i < len(uvs) {
			vert.UV = [2]float64{float64(uvs[i][0]), float64(uvs[i][1])}
		}
		out.Vertices = append(out.Vertices, vert)
	}
	return len(pos), nil
}

func readIndices(doc *gltf.Document, p *gltf.Primitive, out *rig.Mesh, base, n int) error {
	if p.Indices == nil {
		for i := 0; i < n; i++ {
			out.Indices = append(out.Indices, uint32(base+i))
		}
		return nil
	}
	idx, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
	if err != nil {
		return fmt.Errorf("read indices: %w", err)
	}
	for _, i := range idx {
		if int(i) >= n {
			return fmt.Errorf("index %d out of range for %d vertices", i, n)
		}
		out.Indices = append(out.Indices, uint32(base)+i)
	}
	return nil
}

func readWeights(doc *gltf.Document, p *gltf.Primitive, s *gltf.Skin, boneOf map[int]int, base int, perBone map[int][]skin.VertexWeight) error {
	for _, set := range weightSets {
		ji, jok := p.Attributes[set[0]]
		wi, wok := p.Attributes[set[1]]
		if !jok || !wok {
			continue
		}
		joints, err := modeler.ReadJoints(doc, doc.Accessors[ji], nil)
		if err != nil {
			return fmt.Errorf("read %s: %w", set[0], err)
		}
		weights, err := modeler.ReadWeights(doc, doc.Accessors[wi], nil)
		if err != nil {
			return fmt.Errorf("read %s: %w", set[1], err)
		}
		for v := range joints {
			if v >= len(weights) {
				break
			}
			for k := 0; k < 4; k++ {
				w := float64(weights[v][k])
				if w <= 0 {
					continue
				}
				j := int(joints[v][k])
				if j >= len(s.Joints) {
					return fmt.Errorf("vertex %d: joint %d out of range", v, j)
				}
				b := boneOf[s.Joints[j]]
				perBone[b] = append(perBone[b], skin.VertexWeight{Vertex: base + v, Weight: w})
			}
		}
	}
	return nil
}

func baseColorURI(doc *gltf.Document, mat int) string {
	if mat >= len(doc.Materials) {
		return ""
	}
	pbr := doc.Materials[mat].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return ""
	}
	ti := pbr.BaseColorTexture.Index
	if ti >= len(doc.Textures) || doc.Textures[ti].Source == nil {
		return ""
	}
	img := *doc.Textures[ti].Source
	if img >= len(doc.Images) {
		return ""
	}
	return doc.Images[img].URI
}

func vec3(v [3]float32) mathutil.Vec3 {
	return mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
