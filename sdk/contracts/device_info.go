package contracts

// DeviceInfo describes an output endpoint a Transport can open.
type DeviceInfo struct {
	Index        int    // Position in the transport's enumeration; the argument to Open.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}
