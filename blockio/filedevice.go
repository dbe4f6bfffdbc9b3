package blockio

import (
	"fmt"
	"os"
)

// FileDevice is a Device backed by an *os.File, used by the CLI to mount a
// real disk image from the filesystem.
type FileDevice struct {
	sectorSize uint
	sectors    uint
	file       *os.File
}

// OpenFileDevice opens path and treats it as a device with the given sector
// geometry. The file must already exist and be at least sectorSize*sectors
// bytes long.
func OpenFileDevice(path string, sectorSize, sectors uint) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	wantSize := int64(sectorSize) * int64(sectors)
	if info.Size() < wantSize {
		file.Close()
		return nil, fmt.Errorf(
			"%s is %d bytes, too small for %d sectors of %d bytes each",
			path, info.Size(), sectors, sectorSize)
	}

	return &FileDevice{sectorSize: sectorSize, sectors: sectors, file: file}, nil
}

// CreateFileDevice creates path, sized exactly sectorSize*sectors bytes and
// zero-filled, and opens it as a device. It truncates any existing file at
// path.
func CreateFileDevice(path string, sectorSize, sectors uint) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := file.Truncate(int64(sectorSize) * int64(sectors)); err != nil {
		file.Close()
		return nil, err
	}
	return &FileDevice{sectorSize: sectorSize, sectors: sectors, file: file}, nil
}

func (d *FileDevice) SectorSize() uint    { return d.sectorSize }
func (d *FileDevice) DeviceSectors() uint { return d.sectors }
func (d *FileDevice) Close() error        { return d.file.Close() }

func (d *FileDevice) ReadSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	_, err := d.file.ReadAt(buf, int64(id)*int64(d.sectorSize))
	return err
}

func (d *FileDevice) WriteSector(id SectorID, buf []byte) error {
	if err := CheckBounds(d, id, len(buf)); err != nil {
		return err
	}
	_, err := d.file.WriteAt(buf, int64(id)*int64(d.sectorSize))
	return err
}
