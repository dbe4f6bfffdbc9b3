package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kbasic/blockfuse/blockio"
	"github.com/kbasic/blockfuse/fs"
	"github.com/kbasic/blockfuse/geometry"
	"github.com/kbasic/blockfuse/host"
	"github.com/kbasic/blockfuse/imagepack"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Usage: "Mount, format, and pack block-device filesystem images",
		Commands: []*cli.Command{
			mountCommand,
			formatCommand,
			packCommand,
			unpackCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

var mountCommand = &cli.Command{
	Name:      "mount",
	Usage:     "Open a formatted device image through the host layer, then unmount it",
	ArgsUsage: "device=<path> [host args...]",
	Action: func(c *cli.Context) error {
		devicePath := ""
		var hostArgs []string
		for _, arg := range c.Args().Slice() {
			if devicePath == "" && len(arg) > 7 && arg[:7] == "device=" {
				devicePath = arg[7:]
				continue
			}
			hostArgs = append(hostArgs, arg)
		}
		if devicePath == "" {
			return fmt.Errorf("mount requires device=<path>")
		}

		info, err := os.Stat(devicePath)
		if err != nil {
			return err
		}
		dev, err := blockio.OpenFileDevice(devicePath, fs.SectorSize, uint(info.Size())/fs.SectorSize)
		if err != nil {
			return err
		}

		m, err := fs.Open(dev)
		if err != nil {
			return err
		}
		h := host.New(fs.NewFileSystem(m))
		defer h.Unmount()

		log.Printf("mounted %s; remaining args are not passed on: %v", devicePath, hostArgs)
		return nil
	},
}

var formatCommand = &cli.Command{
	Name:      "format",
	Usage:     "Create or wipe a device image",
	ArgsUsage: "PATH",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "geometry", Value: "hitsz-lab5", Usage: "named geometry to format the image with"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return fmt.Errorf("format requires a PATH argument")
		}

		g, err := geometry.Lookup(c.String("geometry"))
		if err != nil {
			return err
		}

		dev, err := blockio.CreateFileDevice(path, g.SectorSize, g.TotalSectors)
		if err != nil {
			return err
		}

		m, err := fs.Format(dev)
		if err != nil {
			return err
		}
		if err := m.Unmount(); err != nil {
			return err
		}

		log.Printf("formatted %s with geometry %q (%d bytes)", path, g.Slug, g.DeviceBytes())
		return nil
	},
}

var packCommand = &cli.Command{
	Name:      "pack",
	Usage:     "Compress a device image for distribution",
	ArgsUsage: "INPUT OUTPUT",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return fmt.Errorf("pack requires INPUT and OUTPUT arguments")
		}
		input, err := os.ReadFile(c.Args().Get(0))
		if err != nil {
			return err
		}
		out, err := os.Create(c.Args().Get(1))
		if err != nil {
			return err
		}
		defer out.Close()

		n, err := imagepack.Pack(input, out)
		if err != nil {
			return err
		}
		log.Printf("packed %d bytes to %d bytes", len(input), n)
		return nil
	},
}

var unpackCommand = &cli.Command{
	Name:      "unpack",
	Usage:     "Decompress a previously packed device image",
	ArgsUsage: "INPUT OUTPUT",
	Action: func(c *cli.Context) error {
		if c.Args().Len() != 2 {
			return fmt.Errorf("unpack requires INPUT and OUTPUT arguments")
		}
		in, err := os.Open(c.Args().Get(0))
		if err != nil {
			return err
		}
		defer in.Close()

		data, err := imagepack.Unpack(in)
		if err != nil {
			return err
		}
		return os.WriteFile(c.Args().Get(1), data, 0644)
	},
}
