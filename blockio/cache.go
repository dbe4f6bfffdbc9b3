package blockio

import (
	"fmt"

	"github.com/boljen/go-bitmap"
)

// CachingDevice wraps a Device with a read/write-back cache of whole sectors.
// Reads and writes that land entirely within a sector go through the cache
// instead of hitting the underlying Device every time; Flush writes every
// dirty sector back and clears their dirty bits.
//
// A Mount uses one of these to sit between its Shim and the backing Device:
// the superblock, both bitmaps, and the inode table are all read and
// rewritten far more often than any single data block, so caching them is
// worth the memory.
type CachingDevice struct {
	dev     Device
	loaded  bitmap.Bitmap
	dirty   bitmap.Bitmap
	data    []byte
	sectors uint
}

// NewCachingDevice wraps dev. The cache is empty until sectors are actually
// touched; it never eagerly reads the whole device.
func NewCachingDevice(dev Device) *CachingDevice {
	n := int(dev.DeviceSectors())
	return &CachingDevice{
		dev:     dev,
		loaded:  bitmap.NewSlice(n),
		dirty:   bitmap.NewSlice(n),
		data:    make([]byte, dev.DeviceSectors()*dev.SectorSize()),
		sectors: dev.DeviceSectors(),
	}
}

func (c *CachingDevice) SectorSize() uint    { return c.dev.SectorSize() }
func (c *CachingDevice) DeviceSectors() uint { return c.sectors }

func (c *CachingDevice) slice(id SectorID) []byte {
	sz := c.dev.SectorSize()
	start := uint(id) * sz
	return c.data[start : start+sz]
}

func (c *CachingDevice) fill(id SectorID) error {
	if c.loaded.Get(int(id)) {
		return nil
	}
	if err := c.dev.ReadSector(id, c.slice(id)); err != nil {
		return err
	}
	c.loaded.Set(int(id), true)
	return nil
}

func (c *CachingDevice) ReadSector(id SectorID, buf []byte) error {
	if err := CheckBounds(c, id, len(buf)); err != nil {
		return err
	}
	if err := c.fill(id); err != nil {
		return fmt.Errorf("cache: fill sector %d: %w", id, err)
	}
	copy(buf, c.slice(id))
	return nil
}

func (c *CachingDevice) WriteSector(id SectorID, buf []byte) error {
	if err := CheckBounds(c, id, len(buf)); err != nil {
		return err
	}
	copy(c.slice(id), buf)
	c.loaded.Set(int(id), true)
	c.dirty.Set(int(id), true)
	return nil
}

// Flush writes every dirty sector back to the wrapped Device and clears
// their dirty bits. It does not close the underlying Device.
func (c *CachingDevice) Flush() error {
	for i := 0; i < int(c.sectors); i++ {
		if !c.dirty.Get(i) {
			continue
		}
		if err := c.dev.WriteSector(SectorID(i), c.slice(SectorID(i))); err != nil {
			return fmt.Errorf("cache: flush sector %d: %w", i, err)
		}
		c.dirty.Set(i, false)
	}
	return nil
}

// Close flushes outstanding writes and closes the wrapped Device.
func (c *CachingDevice) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	return c.dev.Close()
}
