package hifiec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/hifiec/bmp"
	"github.com/bodgit/hifiec/manifest"
	"github.com/bodgit/hifiec/preview"
	"github.com/bodgit/hifiec/resource"
)

// task pairs a sized descriptor with its prebuilt record. Records are
// prepared single-threaded so filename allocation stays deterministic;
// workers only transform bytes and write files.
type task struct {
	desc resource.Descriptor
	rec  manifest.Record
}

func (m *HiFiEC) prepare(entries []resource.Descriptor, b *manifest.Builder) []task {
	tasks := make([]task, 0, len(entries))
	for _, e := range entries {
		isImage := bmp.IsImage(int64(e.RawSize), e.Width, e.Height)

		rec := manifest.Record{
			ID:              e.Index,
			OriginalName:    e.Name,
			OriginalOffset:  e.Offset,
			OriginalRawSize: e.RawSize,
			Width:           e.Width,
			Height:          e.Height,
			IsImage:         isImage,
			SizeInferred:    e.SizeInferred,
		}
		if isImage {
			rec.Transformations = manifest.Transformations{
				ByteSwapApplied: true,
				RowPaddingBytes: bmp.Padding(e.Width),
				BMPHeaderSize:   bmp.HeaderLen,
			}
		}
		rec.SavedFilename = b.Filename(e.Name, e.Index, isImage)

		tasks = append(tasks, task{desc: e, rec: rec})
	}
	return tasks
}

func (m *HiFiEC) generateTasks(ctx context.Context, tasks []task) (<-chan task, <-chan error) {
	out := make(chan task)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, t := range tasks {
			select {
			case out <- t:
			case <-ctx.Done():
				errc <- errors.New("task generation cancelled")
				return
			}
		}
	}()
	return out, errc
}

func (m *HiFiEC) resourceWorker(ctx context.Context, data []byte, source string, cfg Config, in <-chan task, results chan<- manifest.Record) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for t := range in {
			raw := data[t.desc.Offset : t.desc.Offset+t.desc.RawSize]

			final := raw
			if t.rec.IsImage {
				final = bmp.Reconstruct(raw, t.desc.Width, t.desc.Height)
			}

			path := filepath.Join(cfg.OutputDir, t.rec.SavedFilename)
			if err := os.WriteFile(path, final, 0644); err != nil {
				errc <- err
				return
			}

			if cfg.Previews && t.rec.IsImage {
				if err := m.writePreview(final[bmp.HeaderLen:], t.desc, cfg, path); err != nil {
					errc <- err
					return
				}
			}

			if m.db != nil {
				if prior, err := m.db.FindBySHA1(payloadSHA1(raw)); err == nil {
					for _, p := range prior {
						if p.Source != source {
							m.logger.Printf("%s already recovered as %s from %s\n", t.rec.OriginalName, p.Name, p.Source)
						}
					}
				}
				if err := m.db.Add(source, t.rec, raw); err != nil {
					errc <- err
					return
				}
			}

			if t.rec.ID < 10 || t.rec.ID%200 == 0 {
				m.logger.Printf("%-40s OK\n", t.rec.OriginalName)
			}

			select {
			case results <- t.rec:
			case <-ctx.Done():
				errc <- errors.New("resource worker cancelled")
				return
			}
		}
	}()
	return errc
}

func (m *HiFiEC) writePreview(pixels []byte, d resource.Descriptor, cfg Config, bmpPath string) error {
	// The pixel buffer comes restrided out of the reconstructor, so
	// rows sit a destination stride apart rather than tightly packed.
	_, stride := bmp.Strides(d.Width)
	img := preview.FromRGB565(pixels, int(d.Width), int(d.Height), stride)
	thumb := preview.Thumbnail(img, cfg.previewDim())

	name := strings.TrimSuffix(bmpPath, filepath.Ext(bmpPath)) + ".gif"
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	return preview.EncodeGIF(f, thumb)
}

func (m *HiFiEC) resources(data []byte, source string, cfg Config) error {
	m.logger.Println("scanning file table...")

	entries, skipped := resource.Scan(data)
	if skipped > 0 {
		m.logger.Printf("WARN: discarded %d malformed resource records\n", skipped)
	}

	entries, dropped := resource.InferSizes(entries, len(data))
	if dropped > 0 {
		m.logger.Printf("WARN: discarded %d resources with ambiguous boundaries\n", dropped)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	b := manifest.NewBuilder()
	tasks := m.prepare(entries, b)
	m.logger.Printf("processing %d resources...\n", len(tasks))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var errcList []<-chan error

	in, errc := m.generateTasks(ctx, tasks)
	errcList = append(errcList, errc)

	results := make(chan manifest.Record, len(tasks))
	for i := 0; i < cfg.workers(); i++ {
		errcList = append(errcList, m.resourceWorker(ctx, data, source, cfg, in, results))
	}

	if err := waitForPipeline(errcList...); err != nil {
		return err
	}
	close(results)

	for rec := range results {
		b.Add(rec)
	}
	records := b.Records()
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	f, err := os.Create(cfg.manifestPath())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := b.WriteJSON(f); err != nil {
		return err
	}

	m.logger.Printf("complete, manifest at %s\n", cfg.manifestPath())
	return nil
}

func waitForPipeline(errs ...<-chan error) error {
	for err := range mergeErrors(errs...) {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
