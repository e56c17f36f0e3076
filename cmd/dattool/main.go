// dattool is a CLI utility for inspecting Settlers III DAT graphics
// containers.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Faultbox/sied-dat/internal/config"
	"github.com/Faultbox/sied-dat/internal/logger"
	"github.com/Faultbox/sied-dat/pkg/dat"
)

// log carries container diagnostics for every subcommand. Verbosity comes
// from DATTOOL_LOG_LEVEL so the command lines stay short.
var log *zap.Logger

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log = logger.New(logger.Options{
		Level:   os.Getenv("DATTOOL_LOG_LEVEL"),
		Console: true,
	})
	defer log.Sync()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "pointers", "ptr":
		cmdPointers(args)
	case "export", "x":
		cmdExport(args)
	case "anim":
		cmdAnim(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`dattool - Settlers III DAT container utility

Usage:
  dattool <command> [options]

Commands:
  info <file.dat>                          Show container information
  pointers <file.dat> <category> <seq>     Show raw frame offsets of a sequence
  export <file.dat> <seq> [outdir]         Export a settler sequence as BMP files
  anim <file.dat> <index>                  Dump decoded animation records
  config [path]                            Write a starter config file

Options (info, pointers, export, anim):
  -format rgb555|rgb565   Container pixel layout (default rgb555)
  -no-align               Do not right-align short overlay tables

Examples:
  dattool info siedler3_00.7c003e01f.dat
  dattool pointers siedler3_10.7c003e01f.dat torsos 4
  dattool export siedler3_10.7c003e01f.dat 12 ./out
  dattool anim siedler3_20.7c003e01f.dat 0
  dattool config ./sieddat.yaml`)
}

// openFlags adds the container options shared by every command that opens
// a container.
func openFlags(fs *flag.FlagSet) (format *string, noAlign *bool) {
	format = fs.String("format", "rgb555", "Container pixel layout")
	noAlign = fs.Bool("no-align", false, "Do not right-align short overlay tables")
	return format, noAlign
}

func openContainer(path, format string, noAlign bool) (*dat.Reader, error) {
	var typ dat.DatFileType
	switch format {
	case "rgb555":
		typ = dat.RGB555
	case "rgb565":
		typ = dat.RGB565
	default:
		return nil, fmt.Errorf("unknown pixel format %q", format)
	}
	return dat.Open(path, typ, dat.Options{
		OverrideDifferences: !noAlign,
		Logger:              log,
	})
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	format, noAlign := openFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: dattool info <file.dat>")
		os.Exit(1)
	}

	d, err := openContainer(fs.Arg(0), *format, *noAlign)
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	fmt.Printf("Container: %s\n", d.Path())
	fmt.Printf("Format:    %s\n", d.Type())
	fmt.Printf("Size:      %s (%s bytes)\n",
		humanize.Bytes(uint64(d.Size())), humanize.Comma(d.Size()))
	fmt.Println()
	fmt.Println("Sequences by category:")

	categories := []dat.Category{
		dat.CategorySettlers,
		dat.CategoryTorsos,
		dat.CategoryShadows,
		dat.CategoryLandscape,
		dat.CategoryGui,
		dat.CategoryAnimation,
	}
	for _, c := range categories {
		fmt.Printf("  %-10s %d\n", c, d.SequenceCount(c))
	}
}

func cmdPointers(args []string) {
	fs := flag.NewFlagSet("pointers", flag.ExitOnError)
	format, noAlign := openFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: dattool pointers <file.dat> <category> <seq>")
		os.Exit(1)
	}

	var category dat.Category
	switch fs.Arg(1) {
	case "settlers":
		category = dat.CategorySettlers
	case "torsos":
		category = dat.CategoryTorsos
	case "shadows":
		category = dat.CategoryShadows
	default:
		fatal(fmt.Errorf("category %q has no frame tables", fs.Arg(1)))
	}

	var index int
	if _, err := fmt.Sscanf(fs.Arg(2), "%d", &index); err != nil {
		fatal(fmt.Errorf("bad sequence index %q", fs.Arg(2)))
	}

	d, err := openContainer(fs.Arg(0), *format, *noAlign)
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	pointers, err := d.FramePointers(category, index)
	if err != nil {
		fatal(err)
	}
	if pointers == nil {
		fmt.Printf("%s sequence %d is absent\n", category, index)
		return
	}
	for i, p := range pointers {
		fmt.Printf("  frame %3d: 0x%08x\n", i, p)
	}
}

// cmdConfig writes a starter configuration for datviewer and the asset
// manager, either to an explicit path or to the user config directory.
func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Parse(args)

	cfg := config.Default()
	if fs.NArg() >= 1 {
		path := fs.Arg(0)
		if err := cfg.SaveTo(path); err != nil {
			fatal(err)
		}
		fmt.Println(path)
		return
	}
	if err := cfg.Save(); err != nil {
		fatal(err)
	}
	fmt.Println("wrote config to user config directory")
}

func cmdAnim(args []string) {
	fs := flag.NewFlagSet("anim", flag.ExitOnError)
	format, noAlign := openFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: dattool anim <file.dat> <index>")
		os.Exit(1)
	}

	var index int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &index); err != nil {
		fatal(fmt.Errorf("bad animation index %q", fs.Arg(1)))
	}

	d, err := openContainer(fs.Arg(0), *format, *noAlign)
	if err != nil {
		fatal(err)
	}
	defer d.Close()

	animations, err := d.Animations()
	if err != nil {
		fatal(err)
	}
	if index < 0 || index >= len(animations) {
		fatal(fmt.Errorf("animation index %d out of range (%d scripts)", index, len(animations)))
	}

	log.Info("dumping animation",
		zap.Int("index", index),
		zap.Int("records", len(animations[index])))
	for i, record := range animations[index] {
		fmt.Printf("  %3d: %s\n", i, record)
	}
}
