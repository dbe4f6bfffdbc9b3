// Package geometry holds named disk geometries a mount or format can be
// started from, the same CSV-driven-registry idea as the teacher's
// disks.DiskGeometry, repurposed to describe this filesystem's own reference
// device sizes instead of historical floppy formats.
package geometry

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// Geometry describes the sector size and total device size a format/mount
// should assume.
type Geometry struct {
	Slug          string `csv:"slug"`
	Name          string `csv:"name"`
	SectorSize    uint   `csv:"sector_size"`
	TotalSectors  uint   `csv:"total_sectors"`
	Notes         string `csv:"notes"`
}

// DeviceBytes returns the total size of the device this geometry describes.
func (g Geometry) DeviceBytes() int64 {
	return int64(g.SectorSize) * int64(g.TotalSectors)
}

const referenceGeometriesCSV = `slug,name,sector_size,total_sectors,notes
hitsz-lab5,"Reference 4 MiB image",512,8192,"512 B sectors / 4 MiB device, the size used throughout this module's tests"
`

var registry = map[string]Geometry{}

func init() {
	reader := strings.NewReader(referenceGeometriesCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := registry[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry slug %q", row.Slug)
		}
		registry[row.Slug] = row
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("geometry: failed to parse built-in geometry table: %s", err))
	}
}

// Lookup returns the named geometry, or an error if no geometry is
// registered under that slug.
func Lookup(slug string) (Geometry, error) {
	g, ok := registry[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no geometry registered with slug %q", slug)
	}
	return g, nil
}

// Register adds or replaces a geometry in the registry, letting callers
// extend the built-in table without code changes to this package.
func Register(g Geometry) {
	registry[g.Slug] = g
}
