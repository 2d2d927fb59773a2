// Package model imports a skinned hand from a glTF 2.0 file into a rig.
package model

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"handsynth/internal/mathutil"
	"handsynth/internal/rig"
	"handsynth/internal/skeleton"
	"handsynth/internal/skin"
)

// Options controls which meshes are imported and how weights are bound.
type Options struct {
	// Meshes restricts the import to these mesh names. Empty imports every
	// skinned mesh.
	Meshes []string
	// KeypointMesh names the mesh the keypoint calibration refers to.
	// Empty selects the first imported mesh.
	KeypointMesh string
	// Strategy binds vertex weights; nil means skin.GreedyMin.
	Strategy skin.Strategy
}

// Load reads a .gltf or .glb file.
func Load(path string, opts Options) (*rig.Rig, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %s: %w", path, err)
	}
	r, err := FromDocument(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for _, m := range r.Meshes() {
		if m.Texture != "" && !strings.HasPrefix(m.Texture, "data:") && !filepath.IsAbs(m.Texture) {
			m.Texture = filepath.Join(dir, filepath.FromSlash(m.Texture))
		}
	}
	return r, nil
}

// FromDocument builds a rig from a decoded document. Every joint of every
// imported skin becomes a bone; the bone hierarchy follows the scene graph.
func FromDocument(doc *gltf.Document, opts Options) (*rig.Rig, error) {
	strategy := opts.Strategy
	if strategy == nil {
		strategy = skin.GreedyMin{}
	}

	type instance struct {
		mesh, skin int
		name       string
	}
	var instances []instance
	for _, n := range doc.Nodes {
		if n.Mesh == nil || n.Skin == nil {
			continue
		}
		name := doc.Meshes[*n.Mesh].Name
		if name == "" {
			name = n.Name
		}
		if len(opts.Meshes) > 0 && !slices.Contains(opts.Meshes, name) {
			continue
		}
		instances = append(instances, instance{mesh: *n.Mesh, skin: *n.Skin, name: name})
	}
	if len(instances) == 0 {
		return nil, fmt.Errorf("no skinned mesh matches %v", opts.Meshes)
	}

	// Bones in first-seen joint order across skins, keyed by node index.
	boneOf := make(map[int]int)
	var defs []skeleton.BoneDef
	for _, in := range instances {
		s := doc.Skins[in.skin]
		ibms, err := inverseBinds(doc, s)
		if err != nil {
			return nil, fmt.Errorf("skin %d: %w", in.skin, err)
		}
		for j, node := range s.Joints {
			if _, ok := boneOf[node]; ok {
				continue
			}
			boneOf[node] = len(defs)
			defs = append(defs, skeleton.BoneDef{Name: nodeName(doc, node), Offset: ibms[j]})
		}
	}

	sk, err := skeleton.Build(defs, sceneTree(doc))
	if err != nil {
		return nil, err
	}

	meshes := make([]*rig.Mesh, 0, len(instances))
	keypointMesh := 0
	for _, in := range instances {
		m, err := readMesh(doc, in.mesh, doc.Skins[in.skin], boneOf, strategy)
		if err != nil {
			return nil, fmt.Errorf("mesh %s: %w", in.name, err)
		}
		m.Name = in.name
		if opts.KeypointMesh != "" && in.name == opts.KeypointMesh {
			keypointMesh = len(meshes)
		}
		meshes = append(meshes, m)
	}
	if opts.KeypointMesh != "" && meshes[keypointMesh].Name != opts.KeypointMesh {
		return nil, fmt.Errorf("keypoint mesh %q not imported", opts.KeypointMesh)
	}

	r, err := rig.New(sk, meshes)
	if err != nil {
		return nil, err
	}
	if err := r.SetKeypointMesh(keypointMesh); err != nil {
		return nil, err
	}
	return r, nil
}

func nodeName(doc *gltf.Document, i int) string {
	if n := doc.Nodes[i].Name; n != "" {
		return n
	}
	return fmt.Sprintf("node%d", i)
}

// sceneTree converts the default scene's node graph. Scene roots hang off a
// synthetic node that never matches a bone.
func sceneTree(doc *gltf.Document) *skeleton.Node {
	built := make(map[int]*skeleton.Node, len(doc.Nodes))
	var conv func(i int) *skeleton.Node
	conv = func(i int) *skeleton.Node {
		if n, ok := built[i]; ok {
			// Shared subtrees are returned as is; the skeleton rejects them.
			return n
		}
		n := &skeleton.Node{Name: nodeName(doc, i)}
		built[i] = n
		for _, c := range doc.Nodes[i].Children {
			n.Children = append(n.Children, conv(c))
		}
		return n
	}

	var roots []int
	switch {
	case doc.Scene != nil && *doc.Scene < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		// No scene: every node without a parent is a root.
		child := make(map[int]bool)
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				child[c] = true
			}
		}
		for i := range doc.Nodes {
			if !child[i] {
				roots = append(roots, i)
			}
		}
	}

	top := &skeleton.Node{Name: "<scene>"}
	for _, i := range roots {
		top.Children = append(top.Children, conv(i))
	}
	return top
}

// inverseBinds reads the skin's inverse bind matrices, converting from
// glTF's column-major layout. A missing accessor means identity.
func inverseBinds(doc *gltf.Document, s *gltf.Skin) ([]mathutil.Mat4, error) {
	out := make([]mathutil.Mat4, len(s.Joints))
	if s.InverseBindMatrices == nil {
		for i := range out {
			out[i] = mathutil.Mat4Identity()
		}
		return out, nil
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[*s.InverseBindMatrices], nil)
	if err != nil {
		return nil, fmt.Errorf("inverse bind matrices: %w", err)
	}
	mats, ok := data.([][4][4]float32)
	if !ok {
		return nil, fmt.Errorf("inverse bind matrices: unexpected accessor type %T", data)
	}
	if len(mats) < len(s.Joints) {
		return nil, fmt.Errorf("inverse bind matrices: %d for %d joints", len(mats), len(s.Joints))
	}
	for i := range out {
		for c := 0; c < 4; c++ {
			for r := 0; r < 4; r++ {
				out[i][r*4+c] = float64(mats[i][c][r])
			}
		}
	}
	return out, nil
}
