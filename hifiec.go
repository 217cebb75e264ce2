/*
Package hifiec is a library for recovering the internal layout of
HIFIEC20 firmware images: it decodes the partition table, extracts the
partitions and rebuilds the resources packed into the main filesystem
partition as viewable BMP files.
*/
package hifiec

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/hifiec/firmware"
)

// Config carries the output paths and switches for one extraction run.
type Config struct {
	// OutputDir receives the partition blobs and resource files.
	OutputDir string

	// ManifestPath is where the JSON manifest is written. Defaults to
	// manifest.json inside OutputDir.
	ManifestPath string

	// Previews enables quantized GIF thumbnails next to each
	// reconstructed BMP.
	Previews bool

	// PreviewDim bounds the longest thumbnail side. Defaults to 128.
	PreviewDim int

	// Workers sets the number of concurrent resource workers.
	// Defaults to 4.
	Workers int
}

func (c *Config) manifestPath() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return filepath.Join(c.OutputDir, "manifest.json")
}

func (c *Config) previewDim() int {
	if c.PreviewDim > 0 {
		return c.PreviewDim
	}
	return 128
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return 4
}

// HiFiEC ties the extraction pipeline to an optional resource catalog
// and a diagnostic logger.
type HiFiEC struct {
	db     *ResourceDB
	logger *log.Logger
}

// New returns a HiFiEC. The catalog may be nil, in which case no
// records are persisted beyond the manifest.
func New(db *ResourceDB, logger *log.Logger) *HiFiEC {
	return &HiFiEC{
		db:     db,
		logger: logger,
	}
}

// Split decodes the partition table of the image at path and writes
// one blob per extractable partition into outputDir, reporting
// adjacency violations and running the layout diagnostics.
func (m *HiFiEC) Split(path, outputDir string) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read image: %w", err)
	}

	_, err = m.split(image, outputDir)
	return err
}

func (m *HiFiEC) split(image []byte, outputDir string) (firmware.Table, error) {
	table, problems, err := firmware.DecodeTable(image)
	if err != nil {
		return nil, err
	}
	for _, p := range problems {
		m.logger.Printf("WARN: %v\n", p)
	}

	for _, name := range table.Names() {
		p := table[name]
		m.logger.Printf("%-20s %-8s offset=0x%08X size=0x%08X end=0x%08X\n",
			p.Name, p.Layout, p.Offset, p.Size, p.End())
	}

	for _, a := range table.VerifyAdjacency() {
		m.logger.Println(a)
	}

	for _, name := range table.Extract(image) {
		m.logger.Printf("ERR: %s out of bounds, skipped\n", name)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	extracted := 0
	for _, name := range table.Names() {
		p := table[name]
		if p.Data == nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(outputDir, name+".bin"), p.Data, 0644); err != nil {
			return nil, fmt.Errorf("cannot write partition %s: %w", name, err)
		}
		extracted++
	}
	m.logger.Printf("extracted %d partitions to %s\n", extracted, outputDir)

	m.diagnose(table)

	return table, nil
}

// diagnose runs the structural sanity checks recovered alongside the
// partition layout. Both are hints; neither affects extraction.
func (m *HiFiEC) diagnose(table firmware.Table) {
	if p, ok := table[firmware.PartResource]; ok && p.Data != nil {
		r := firmware.AnalyzeIndexTable(p.Data)
		if r.OddSize {
			m.logger.Printf("WARN: %s size is not even\n", p.Name)
		}
		if r.Linear {
			m.logger.Printf("%s: strictly linear index table with %d entries\n", p.Name, r.Entries)
		} else {
			m.logger.Printf("%s: non-linear mapping at index %d, sample %v\n", p.Name, r.BrokenAt, r.Sample)
		}
	}

	if p, ok := table[firmware.PartFirmwareA]; ok && p.Data != nil {
		ctx, err := firmware.AnalyzeExecution(p.Data)
		if err != nil {
			m.logger.Printf("WARN: %s: %v\n", p.Name, err)
			return
		}
		m.logger.Printf("%s: MSP=0x%08X PC=0x%08X\n", p.Name, ctx.MSP, ctx.Reset)
		if !ctx.InRange {
			m.logger.Printf("WARN: entry point 0x%08X outside hypothesized base 0x%08X\n", ctx.Reset, uint32(firmware.LoadBase))
			return
		}
		m.logger.Printf("entry point maps to file offset 0x%08X\n", ctx.EntryOffset)
		if ctx.OpcodeValid {
			m.logger.Printf("opcode at reset: %08X\n", ctx.Opcode)
		}
	}
}

// Resources scans an already-extracted filesystem partition at path
// and rebuilds every resource it describes.
func (m *HiFiEC) Resources(path string, cfg Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read partition: %w", err)
	}

	return m.resources(data, filepath.Base(path), cfg)
}

// Extract runs the whole pipeline: partition split followed by
// resource recovery from the main filesystem partition.
func (m *HiFiEC) Extract(path string, cfg Config) error {
	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read image: %w", err)
	}

	table, err := m.split(image, cfg.OutputDir)
	if err != nil {
		return err
	}

	p, ok := table[firmware.PartMainFS]
	if !ok || p.Data == nil {
		m.logger.Printf("WARN: %s not extracted, no resources to recover\n", firmware.PartMainFS)
		return nil
	}

	// Resources live one level below the partition blobs.
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "resources")

	return m.resources(p.Data, filepath.Base(path), cfg)
}
