// File: internal/quantity/pose.go
package quantity

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a rigid 3D transform (rotation followed by translation) placing a
// surface or node in world space. The rotation is stored as a unit quaternion.
// Local coordinates are right-handed with the optical axis along +Z.
type Pose struct {
	rot   r3.Rotation
	trans r3.Vec
}

// IdentityPose returns the identity transform.
func IdentityPose() Pose {
	return Pose{rot: r3.Rotation(quat.Number{Real: 1}), trans: r3.Vec{}}
}

// NewPose builds a pose from a translation (meters) and intrinsic X-Y-Z Euler
// rotation angles.
func NewPose(translation r3.Vec, rx, ry, rz Angle) Pose {
	qx := r3.NewRotation(rx.Radians(), r3.Vec{X: 1})
	qy := r3.NewRotation(ry.Radians(), r3.Vec{Y: 1})
	qz := r3.NewRotation(rz.Radians(), r3.Vec{Z: 1})
	// Intrinsic X-Y-Z: apply X first, then Y, then Z.
	rot := quat.Mul(quat.Number(qz), quat.Mul(quat.Number(qy), quat.Number(qx)))
	return Pose{rot: r3.Rotation(rot), trans: translation}
}

// PoseFromRay builds a pose whose local +Z axis points along dir and whose
// origin sits at pos. Used to align a surface perpendicular to an incoming
// ray, e.g. when auto-positioning nodes along the optical axis.
func PoseFromRay(pos, dir r3.Vec) Pose {
	z := r3.Vec{Z: 1}
	d := r3.Unit(dir)
	dot := r3.Dot(z, d)
	var rot r3.Rotation
	switch {
	case dot > 1-1e-12:
		rot = r3.Rotation(quat.Number{Real: 1})
	case dot < -1+1e-12:
		// Antiparallel: rotate pi around X.
		rot = r3.NewRotation(math.Pi, r3.Vec{X: 1})
	default:
		axis := r3.Unit(r3.Cross(z, d))
		rot = r3.NewRotation(math.Acos(dot), axis)
	}
	return Pose{rot: rot, trans: pos}
}

// Translation returns the translational part of the pose.
func (p Pose) Translation() r3.Vec { return p.trans }

// TransformPoint maps a point from local to world coordinates.
func (p Pose) TransformPoint(v r3.Vec) r3.Vec {
	return r3.Add(p.rot.Rotate(v), p.trans)
}

// TransformDir maps a direction from local to world coordinates. Directions
// are not translated.
func (p Pose) TransformDir(v r3.Vec) r3.Vec {
	return p.rot.Rotate(v)
}

// InversePoint maps a point from world to local coordinates.
func (p Pose) InversePoint(v r3.Vec) r3.Vec {
	inv := r3.Rotation(quat.Conj(quat.Number(p.rot)))
	return inv.Rotate(r3.Sub(v, p.trans))
}

// InverseDir maps a direction from world to local coordinates.
func (p Pose) InverseDir(v r3.Vec) r3.Vec {
	inv := r3.Rotation(quat.Conj(quat.Number(p.rot)))
	return inv.Rotate(v)
}

// Compose returns the pose equivalent to applying q first, then p.
func (p Pose) Compose(q Pose) Pose {
	return Pose{
		rot:   r3.Rotation(quat.Mul(quat.Number(p.rot), quat.Number(q.rot))),
		trans: p.TransformPoint(q.trans),
	}
}

// Inverse returns the inverse transform, so that p.Compose(p.Inverse()) is
// the identity up to floating point error.
func (p Pose) Inverse() Pose {
	inv := r3.Rotation(quat.Conj(quat.Number(p.rot)))
	return Pose{rot: inv, trans: inv.Rotate(r3.Scale(-1, p.trans))}
}
