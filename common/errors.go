package common

import "errors"

var (
	// ErrNotReady is returned when an asset a preparation step depends on has not finished loading.
	// Callers retry on a later frame instead of treating it as a failure.
	ErrNotReady = errors.New("asset not ready")

	// ErrSpecialization is returned when no pipeline can be built for a mesh/material combination.
	ErrSpecialization = errors.New("pipeline specialization failed")

	// ErrUnknownMesh is returned when a mesh ID is not present in the mesh registry.
	ErrUnknownMesh = errors.New("unknown mesh")

	// ErrUnknownMaterial is returned when a material ID has no prepared material.
	ErrUnknownMaterial = errors.New("unknown material")

	// ErrDeviceLost is returned when the GPU device can no longer be used.
	ErrDeviceLost = errors.New("device lost")

	// ErrInvalidConfig is returned when configuration values fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("resource released")
)
