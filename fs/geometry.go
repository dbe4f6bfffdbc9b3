package fs

// Fixed on-disk geometry. Every mount uses the same layout; only the
// backing blockio.Device (memory or file) varies.
const (
	SectorSize = 512            // S, what the driver reports
	BlockSize  = 2 * SectorSize // B
	MagicNum   = 0x52415453     // superblock magic, per spec

	DataPerFile = 7 // direct data-block pointers per inode

	MaxInodes      = 512
	InodesPerBlock = BlockSize / inodeWireSize // 8, given inodeWireSize=128
	InodeBlocks    = MaxInodes / InodesPerBlock

	SuperblockBlock  = 0
	InodeBitmapBlock = 1
	DataBitmapBlock  = 2
	InodeTableStart  = 3

	DataRegionStart = InodeTableStart + InodeBlocks // 67

	// DataBlocks and DeviceBlocks are derived once the data bitmap's
	// capacity (set at format time from the device size) is known; see
	// mount.go. The reference geometry used throughout the tests and the
	// "hitsz-lab5" named geometry is a 4 MiB device:
	RefDeviceBlocks = 4096
	RefDataBlocks   = RefDeviceBlocks - DataRegionStart // 4029

	RootIno = 0
)
