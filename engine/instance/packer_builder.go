package instance

// PackerBuilderOption is a functional option for configuring a Packer via NewPacker.
type PackerBuilderOption func(*packer)

// WithBacking sets the buffer kind the packer targets.
//
// Parameters:
//   - backing: storage or uniform
//
// Returns:
//   - PackerBuilderOption: a function that sets the backing
func WithBacking(backing Backing) PackerBuilderOption {
	return func(p *packer) {
		p.backing = backing
	}
}

// WithMaxUniformBindingSize sets the device's uniform binding limit used to derive uniform capacity.
// Zero keeps DefaultMaxUniformBindingSize.
//
// Parameters:
//   - size: the limit in bytes
//
// Returns:
//   - PackerBuilderOption: a function that sets the limit
func WithMaxUniformBindingSize(size uint32) PackerBuilderOption {
	return func(p *packer) {
		if size > 0 {
			p.maxUniformBindingSize = size
		}
	}
}

// WithCapacityOverride fixes the number of instances per uniform buffer instead of deriving it from the
// binding limit. Zero derives the capacity.
//
// Parameters:
//   - capacity: instances per buffer
//
// Returns:
//   - PackerBuilderOption: a function that sets the capacity
func WithCapacityOverride(capacity uint32) PackerBuilderOption {
	return func(p *packer) {
		p.capacityOverride = capacity
	}
}

// SelectBacking picks the backing for a device: storage when requested or when mode is "auto" and the
// device supports storage buffers in the vertex stage, uniform otherwise.
//
// Parameters:
//   - storageSupported: whether the device supports vertex-stage storage buffers
//   - mode: "auto", "storage" or "uniform"
//
// Returns:
//   - Backing: the selected backing
func SelectBacking(storageSupported bool, mode string) Backing {
	switch mode {
	case "storage":
		return BackingStorage
	case "uniform":
		return BackingUniform
	}
	if storageSupported {
		return BackingStorage
	}
	return BackingUniform
}
