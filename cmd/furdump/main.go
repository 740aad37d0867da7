package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-audio/wav"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	"golang.org/x/term"

	"github.com/QEStudios/FurnaceKit/furnace"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "", log.Ldate|log.Ltime)

	// Get the current working directory.
	cwd, err := os.Getwd()
	if err != nil {
		logger.Fatalf("failed to get current working directory: %v", err)
	}

	var (
		subsongIndex  uint8
		showPatterns  bool
		exportSamples string
		debugDump     bool
		outPath       string
		compressOut   bool
	)
	pflag.Uint8VarP(&subsongIndex, "subsong", "s", 0, "subsong index (0-127)")
	pflag.BoolVarP(&showPatterns, "patterns", "p", false, "render the order table and pattern rows")
	pflag.StringVar(&exportSamples, "export-samples", "", "write every sample as a WAV file into this directory")
	pflag.BoolVarP(&debugDump, "debug", "d", false, "dump decoded metadata, compat flags and chip flags")
	pflag.StringVarP(&outPath, "out", "o", "", "re-encode the module to this path")
	pflag.BoolVar(&compressOut, "compress", false, "zlib-compress the re-encoded module")
	pflag.Parse()

	// Get the path of the Furnace module file.
	path, err := choosePath(cwd, pflag.Args())
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			logger.Printf("User cancelled the file dialog")
			os.Exit(1)
		}
		logger.Fatalf("failed to determine file path: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatalf("error opening file: %v", err)
	}

	res, err := furnace.NewDecoder(data, logger).Decode()
	if err != nil {
		logger.Fatalf("decode error: %v", err)
	}
	mod := res.Module

	printSummary(mod)

	if debugDump {
		spew.Dump(mod.Meta)
		spew.Dump(mod.CompatFlags)
		for _, chip := range mod.Chips.Chips {
			spew.Dump(chip)
		}
	}

	if showPatterns {
		if int(subsongIndex) >= len(mod.SubSongs) {
			logger.Fatalf("subsong %d does not exist, module has %d", subsongIndex, len(mod.SubSongs))
		}
		printPatterns(mod, int(subsongIndex))
	}

	if exportSamples != "" {
		if err := writeSampleWAVs(mod, exportSamples); err != nil {
			logger.Fatalf("sample export error: %v", err)
		}
	}

	if outPath != "" {
		var img []byte
		if compressOut {
			img, err = mod.EncodeModuleCompressed()
		} else {
			img, err = mod.EncodeModule()
		}
		if err != nil {
			logger.Fatalf("encode error: %v", err)
		}
		if err := os.WriteFile(outPath, img, 0o644); err != nil {
			logger.Fatalf("Error writing output file: %v", err)
		}
		logger.Printf("wrote %d bytes to %s", len(img), outPath)
	}
}

// choosePath returns the file path either from the command-line args
// or from an interactive file dialog.
func choosePath(cwd string, args []string) (string, error) {
	// If an argument was passed to the program, use it.
	if len(args) > 0 {
		path := args[0]
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot get absolute path: %w", err)
		}
		if err := validatePath(absPath); err != nil {
			return "", fmt.Errorf("passed argument is not a valid path: %w", err)
		}
		return absPath, nil
	}

	// Otherwise open the file dialog.
	path, err := dialog.
		File().
		Title("Open Furnace module").
		Filter("Furnace modules (*.fur)", "fur").
		SetStartDir(cwd).
		Load()
	if err != nil {
		// Propagate the error. Caller will check for dialog.ErrCancelled.
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot get absolute path: %w", err)
	}

	// Check for empty path just in case.
	if absPath == "" {
		return "", dialog.ErrCancelled
	}
	if err := validatePath(absPath); err != nil {
		return "", fmt.Errorf("dialog selection invalid: %w", err)
	}
	return absPath, nil
}

// validatePath performs simple checks to verify if a file exists or not.
func validatePath(p string) error {
	if strings.ToLower(filepath.Ext(p)) != ".fur" {
		return fmt.Errorf("file must have .fur extension")
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	return nil
}

// padCell pads s with spaces up to the given display width. Byte counts
// misalign columns holding double-width characters, which the localized
// metadata fields are full of.
func padCell(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad < 0 {
		pad = 0
	}
	return s + strings.Repeat(" ", pad)
}

func joinLocalized(a, b string) string {
	if b == "" {
		return a
	}
	if a == "" {
		return b
	}
	return a + " / " + b
}

func printSummary(mod *furnace.Module) {
	fmt.Println(mod)

	kv := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Printf("  %s %s\n", padCell(key, 8), value)
	}
	kv("Name", joinLocalized(mod.Meta.Name, mod.Meta.NameJP))
	kv("Author", joinLocalized(mod.Meta.Author, mod.Meta.AuthorJP))
	kv("Album", joinLocalized(mod.Meta.Album, mod.Meta.AlbumJP))
	kv("System", joinLocalized(mod.Meta.SysName, mod.Meta.SysNameJP))
	kv("Tuning", fmt.Sprintf("A-4 = %.2f Hz", mod.Meta.Tuning))

	fmt.Printf("  %d channels over %d chips:\n", mod.NumChannels(), len(mod.Chips.Chips))
	nameWidth := 0
	for _, chip := range mod.Chips.Chips {
		if w := runewidth.StringWidth(chip.Type.String()); w > nameWidth {
			nameWidth = w
		}
	}
	for _, chip := range mod.Chips.Chips {
		fmt.Printf("    %s %2d ch  vol %.2f  pan %+.2f\n",
			padCell(chip.Type.String(), nameWidth), chip.Type.Channels(), chip.Volume, chip.Panning)
	}

	for i, ss := range mod.SubSongs {
		name := ss.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  subsong %d %s: %d rows/pattern, speeds %v, %.2f Hz\n",
			i, name, ss.PatternLength, ss.Timing.Speed, ss.Timing.ClockSpeed)
	}

	fmt.Printf("  %d instruments, %d wavetables, %d samples, %d patterns\n",
		len(mod.Instruments), len(mod.Wavetables), len(mod.Samples), len(mod.Patterns))
}

// lineWidth is the display budget for pattern rows: the terminal width when
// stdout is one, a generous default when it is a pipe.
func lineWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 20 {
			return w
		}
	}
	return 120
}

func printPatterns(mod *furnace.Module, subsong int) {
	ss := mod.SubSongs[subsong]
	width := lineWidth()

	positions := 0
	if len(ss.Order) > 0 {
		positions = len(ss.Order[0])
	}
	fmt.Printf("order table (%d positions):\n", positions)
	for pos := 0; pos < positions; pos++ {
		var sb strings.Builder
		fmt.Fprintf(&sb, "  %02X:", pos)
		for ch := range ss.Order {
			if pos < len(ss.Order[ch]) {
				fmt.Fprintf(&sb, " %02X", ss.Order[ch][pos])
			}
		}
		fmt.Println(runewidth.Truncate(sb.String(), width, ">"))
	}

	for _, p := range mod.Patterns {
		if int(p.Subsong) != subsong {
			continue
		}
		fmt.Printf("\n%v:\n", p)
		for i, row := range p.Rows {
			line := fmt.Sprintf("  %02X | %v", i, row)
			fmt.Println(runewidth.Truncate(line, width, ">"))
		}
	}
}

func writeSampleWAVs(mod *furnace.Module, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, smp := range mod.Samples {
		buf := smp.PCMBuffer()
		if buf == nil {
			logger.Printf("sample %d %q is not plain PCM, skipping", i, smp.Name)
			continue
		}
		name := fmt.Sprintf("%02d-%s.wav", i, sanitizeName(smp.Name))
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		enc := wav.NewEncoder(f, buf.Format.SampleRate, buf.SourceBitDepth, buf.Format.NumChannels, 1)
		if err := enc.Write(buf); err != nil {
			f.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Printf("wrote %s", name)
	}
	return nil
}

// sanitizeName strips path separators and other characters that various
// filesystems refuse.
func sanitizeName(s string) string {
	if s == "" {
		return "sample"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
