package instancing

import "github.com/Carmen-Shannon/oxy-instancing/engine/renderer/pipeline"

// InstancerBuilderOption is a functional option for configuring an Instancer via NewInstancer.
type InstancerBuilderOption func(*instancer)

// WithInstanceBuffer selects how instance data is bound: "storage", "uniform" or "auto", which uses
// storage buffers when the device supports them in the vertex stage.
//
// Parameters:
//   - mode: the instance buffer mode
//
// Returns:
//   - InstancerBuilderOption: a function that sets the mode
func WithInstanceBuffer(mode string) InstancerBuilderOption {
	return func(i *instancer) {
		i.bufferMode = mode
	}
}

// WithUniformCapacity fixes the number of instances per uniform instance buffer. Zero derives the
// capacity from the device's uniform binding limit.
//
// Parameters:
//   - capacity: instances per uniform buffer
//
// Returns:
//   - InstancerBuilderOption: a function that sets the capacity
func WithUniformCapacity(capacity uint32) InstancerBuilderOption {
	return func(i *instancer) {
		i.uniformCapacity = capacity
	}
}

// WithIndirectMode selects between GPU indirect draws and CPU issued draws.
//
// Parameters:
//   - mode: the indirect mode
//
// Returns:
//   - InstancerBuilderOption: a function that sets the mode
func WithIndirectMode(mode IndirectMode) InstancerBuilderOption {
	return func(i *instancer) {
		i.indirectMode = mode
	}
}

// WithWorkers sets the maximum number of views prepared in parallel. Values below 1 are ignored.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - InstancerBuilderOption: a function that sets the worker count
func WithWorkers(workers int) InstancerBuilderOption {
	return func(i *instancer) {
		if workers > 0 {
			i.workers = workers
		}
	}
}

// WithQueueSize sets the capacity of the worker pool's task queue. Values below 1 are ignored.
//
// Parameters:
//   - size: the queue size
//
// Returns:
//   - InstancerBuilderOption: a function that sets the queue size
func WithQueueSize(size int) InstancerBuilderOption {
	return func(i *instancer) {
		if size > 0 {
			i.queueSize = size
		}
	}
}

// WithSpecializerOptions passes options through to the pipeline specializer, e.g. a custom composer or
// validator.
//
// Parameters:
//   - options: the specializer options
//
// Returns:
//   - InstancerBuilderOption: a function that appends the options
func WithSpecializerOptions(options ...pipeline.SpecializerBuilderOption) InstancerBuilderOption {
	return func(i *instancer) {
		i.specializerOptions = append(i.specializerOptions, options...)
	}
}
