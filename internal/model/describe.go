package model

import (
	"fmt"
	"io"
	"strings"

	"handsynth/internal/rig"
)

// BoneInfo describes one bone for inspection.
type BoneInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Parent   string `json:"parent,omitempty"`
	Children int    `json:"children"`
}

// MeshInfo describes one imported mesh.
type MeshInfo struct {
	Name      string `json:"name"`
	Vertices  int    `json:"vertices"`
	Triangles int    `json:"triangles"`
	Bones     int    `json:"bones"`
	Unbound   int    `json:"unbound_vertices"`
	Texture   string `json:"texture,omitempty"`
	Keypoints bool   `json:"keypoint_reference"`
}

// Summary is what the inspect command prints.
type Summary struct {
	Bones  []BoneInfo `json:"bones"`
	Meshes []MeshInfo `json:"meshes"`
}

// Describe summarises a loaded rig.
func Describe(r *rig.Rig) Summary {
	var s Summary
	sk := r.Skeleton()
	for id := 0; id < sk.Len(); id++ {
		b, err := sk.Bone(id)
		if err != nil {
			continue
		}
		info := BoneInfo{ID: id, Name: b.Name, Children: len(b.Children)}
		if b.Parent >= 0 {
			if p, err := sk.Bone(b.Parent); err == nil {
				info.Parent = p.Name
			}
		}
		s.Bones = append(s.Bones, info)
	}
	for i, m := range r.Meshes() {
		info := MeshInfo{
			Name:      m.Name,
			Vertices:  len(m.Vertices),
			Triangles: m.Triangles(),
			Bones:     len(m.Bones),
			Texture:   m.Texture,
			Keypoints: i == r.KeypointMesh(),
		}
		for _, v := range m.Vertices {
			if len(v.Influences.Bound()) == 0 {
				info.Unbound++
			}
		}
		s.Meshes = append(s.Meshes, info)
	}
	return s
}

// WriteTree prints the bone hierarchy as an indented tree.
func WriteTree(w io.Writer, r *rig.Rig) error {
	sk := r.Skeleton()
	var walk func(id, depth int) error
	walk = func(id, depth int) error {
		b, err := sk.Bone(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%s [%d]\n", strings.Repeat("  ", depth), b.Name, id); err != nil {
			return err
		}
		for _, c := range b.Children {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range sk.Roots() {
		if err := walk(root, 0); err != nil {
			return err
		}
	}
	return nil
}
