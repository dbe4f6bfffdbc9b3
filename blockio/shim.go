package blockio

// Shim turns a sector-exact Device into something that can be read from and
// written to at arbitrary byte offsets and lengths, the way the rest of the
// filesystem wants to address its superblock, bitmaps, inode table, and data
// region. The read path always rounds out to whole sectors and trims the
// result; the write path does the same but first reads back any partial
// sector so a short write never clobbers the bytes around it.
type Shim struct {
	dev Device
}

// NewShim wraps dev.
func NewShim(dev Device) *Shim {
	return &Shim{dev: dev}
}

func (s *Shim) SectorSize() uint    { return s.dev.SectorSize() }
func (s *Shim) DeviceSectors() uint { return s.dev.DeviceSectors() }
func (s *Shim) DeviceBytes() uint   { return s.dev.SectorSize() * s.dev.DeviceSectors() }
func (s *Shim) Close() error        { return s.dev.Close() }

// span computes the aligned-down starting sector, the bias (how many bytes
// into that sector `offset` actually starts), and the number of whole
// sectors needed to cover offset..offset+length.
func (s *Shim) span(offset int64, length int) (start SectorID, bias int, sectors uint) {
	size := int64(s.dev.SectorSize())
	start = SectorID(offset / size)
	bias = int(offset % size)
	sectors = uint((int64(bias)+int64(length)+size-1)/size)
	return
}

// ReadAt reads length bytes beginning at offset.
func (s *Shim) ReadAt(offset int64, length int) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	start, bias, sectors := s.span(offset, length)
	scratch := make([]byte, sectors*s.dev.SectorSize())
	if err := s.readSectors(start, sectors, scratch); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, scratch[bias:bias+length])
	return out, nil
}

// WriteAt writes data beginning at offset. If offset and len(data) don't
// align to sector boundaries, the sectors they partially cover are read
// first so the untouched bytes survive the round trip.
func (s *Shim) WriteAt(offset int64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	start, bias, sectors := s.span(offset, len(data))
	scratch := make([]byte, sectors*s.dev.SectorSize())

	sectorSize := int64(s.dev.SectorSize())
	fullyAligned := bias == 0 && int64(len(data))%sectorSize == 0
	if !fullyAligned {
		if err := s.readSectors(start, sectors, scratch); err != nil {
			return err
		}
	}
	copy(scratch[bias:bias+len(data)], data)
	return s.writeSectors(start, sectors, scratch)
}

func (s *Shim) readSectors(start SectorID, count uint, into []byte) error {
	size := s.dev.SectorSize()
	for i := uint(0); i < count; i++ {
		if err := s.dev.ReadSector(start+SectorID(i), into[i*size:(i+1)*size]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shim) writeSectors(start SectorID, count uint, from []byte) error {
	size := s.dev.SectorSize()
	for i := uint(0); i < count; i++ {
		if err := s.dev.WriteSector(start+SectorID(i), from[i*size:(i+1)*size]); err != nil {
			return err
		}
	}
	return nil
}
