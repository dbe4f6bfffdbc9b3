// Package blockio provides the sector-addressed driver interface this
// filesystem is built on, plus a shim that turns sector-exact reads and
// writes into byte-range reads and writes at arbitrary offsets.
package blockio

import "fmt"

// SectorID addresses a single fixed-size sector on a Device.
type SectorID uint

// Device is the driver interface a mount is built on top of. It only ever
// moves whole sectors; Shim is what turns this into byte-addressable I/O.
type Device interface {
	// SectorSize returns the size, in bytes, of a single sector.
	SectorSize() uint

	// DeviceSectors returns the total number of sectors on the device.
	DeviceSectors() uint

	// ReadSector fills buf, which must be exactly SectorSize() bytes, with
	// the contents of the sector at id.
	ReadSector(id SectorID, buf []byte) error

	// WriteSector writes buf, which must be exactly SectorSize() bytes, to
	// the sector at id.
	WriteSector(id SectorID, buf []byte) error

	// Close releases any resources held by the device. Devices backed by
	// plain memory may treat this as a no-op.
	Close() error
}

// CheckBounds validates that a sector ID and the length of the buffer
// covering it fit within dev. It's shared by every Device implementation so
// the bounds-checking text is consistent no matter which driver raised it.
func CheckBounds(dev Device, id SectorID, bufLen int) error {
	if bufLen != int(dev.SectorSize()) {
		return fmt.Errorf(
			"buffer length %d does not match sector size %d", bufLen, dev.SectorSize())
	}
	if uint(id) >= dev.DeviceSectors() {
		return fmt.Errorf(
			"sector %d out of range [0, %d)", id, dev.DeviceSectors())
	}
	return nil
}
