package blockio

import "fmt"

// MemDevice is a Device backed entirely by a byte slice. It never touches
// the filesystem, which makes it the standard backing store for tests.
type MemDevice struct {
	sectorSize uint
	data       []byte
}

// NewMemDevice allocates a zero-filled device of sectorSize*totalSectors
// bytes.
func NewMemDevice(sectorSize, totalSectors uint) *MemDevice {
	return &MemDevice{
		sectorSize: sectorSize,
		data:       make([]byte, sectorSize*totalSectors),
	}
}

// NewMemDeviceFromBytes wraps an existing image. len(data) must be an exact
// multiple of sectorSize.
func NewMemDeviceFromBytes(sectorSize uint, data []byte) (*MemDevice, error) {
	if uint(len(data))%sectorSize != 0 {
		return nil, fmt.Errorf(
			"image size %d is not a multiple of sector size %d", len(data), sectorSize)
	}
	return &MemDevice{sectorSize: sectorSize, data: data}, nil
}

func (d *MemDevice) SectorSize() uint     { return d.sectorSize }
func (d *MemDevice) DeviceSectors() uint  { return uint(len(d.data)) / d.sectorSize }
func (d *MemDevice) Close() error         { return nil }

// Bytes returns the device's backing slice. Callers must not retain it past
// the device's lifetime if they intend to keep using the device.
func (d *MemDevice) Bytes() []byte { return d.data }

func (d *MemDevice) ReadSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	offset := uint(id) * d.sectorSize
	copy(buf, d.data[offset:offset+d.sectorSize])
	return nil
}

func (d *MemDevice) WriteSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	offset := uint(id) * d.sectorSize
	copy(d.data[offset:offset+d.sectorSize], buf)
	return nil
}
