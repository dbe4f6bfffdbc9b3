package blockio

import "io"

// SeekerDevice is a Device backed by an arbitrary io.ReadWriteSeeker, the
// same generalization drivers/common/blockdevice.go made over a raw stream.
// It's mainly useful for wrapping an in-memory buffer that some other
// package already hands back as a seeker (e.g. bytesextra's byte-slice
// seeker) rather than a blockio.MemDevice.
type SeekerDevice struct {
	stream     io.ReadWriteSeeker
	sectorSize uint
	sectors    uint
}

// NewSeekerDevice wraps stream, which must already contain exactly
// sectorSize*sectors bytes.
func NewSeekerDevice(stream io.ReadWriteSeeker, sectorSize, sectors uint) *SeekerDevice {
	return &SeekerDevice{stream: stream, sectorSize: sectorSize, sectors: sectors}
}

func (d *SeekerDevice) SectorSize() uint    { return d.sectorSize }
func (d *SeekerDevice) DeviceSectors() uint { return d.sectors }
func (d *SeekerDevice) Close() error        { return nil }

func (d *SeekerDevice) ReadSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(int64(id)*int64(d.sectorSize), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(d.stream, buf)
	return err
}

func (d *SeekerDevice) WriteSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	if _, err := d.stream.Seek(int64(id)*int64(d.sectorSize), io.SeekStart); err != nil {
		return err
	}
	_, err := d.stream.Write(buf)
	return err
}
