package fs

// Mode bit layout, trimmed down from the usual POSIX st_mode constants to
// just the two object types this filesystem actually stores. Nothing on disk
// stores a mode directly (see wire.go's Ftype); this is purely the
// st_mode a Stat synthesizes for a host layer.
const (
	ModeDir  = 0x4000 // S_IFDIR
	ModeFile = 0x8000 // S_IFREG
	ModeMask = 0xF000 // S_IFMT
)

// DefaultPerm is the fixed permission bits every object is created with;
// per-object permissions are out of scope.
const DefaultPerm = 0755

// modeForFtype synthesizes an st_mode from an on-disk Ftype value.
func modeForFtype(ftype uint32) uint16 {
	if ftype == ftypeDir {
		return ModeDir | DefaultPerm
	}
	return ModeFile | DefaultPerm
}
