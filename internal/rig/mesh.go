// Package rig ties a skeleton to the meshes it deforms and carries the
// per-frame model transform.
package rig

import (
	"handsynth/internal/mathutil"
	"handsynth/internal/skin"
)

// Mesh is one skinned mesh. Vertices hold bind-pose data and are never
// mutated once loaded; Bones maps bone names used by this mesh to skeleton
// ids.
type Mesh struct {
	Name     string
	Vertices []skin.Vertex
	Indices  []uint32
	Bones    map[string]int

	// Texture is the base colour image path, or "" for vertex colour.
	Texture string
}

// Triangles returns the number of triangles in the index buffer.
func (m *Mesh) Triangles() int { return len(m.Indices) / 3 }

// Skinned is a mesh deformed by the current pose, in world space.
type Skinned struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3
}
