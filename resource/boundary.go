package resource

import "sort"

// InferSizes sorts the descriptors by payload offset and assigns each
// one the gap to the next payload as its size. The last descriptor is
// sized to the start of the metadata region, or to the end of the
// partition when its payload sits past the metadata.
//
// This assumes payloads are stored contiguously and in the same
// relative order as their offsets, which holds for this format but is
// not protected by any checksum; every size produced here is marked
// inferred. Descriptors whose computed size is not positive are
// dropped and counted. Each descriptor keeps its pre-drop position in
// Index, so ids downstream stay stable when entries are dropped.
func InferSizes(entries []Descriptor, partitionLen int) ([]Descriptor, int) {
	if len(entries) == 0 {
		return nil, 0
	}

	sorted := append(entries[:0:0], entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	// The metadata region begins at the lowest record position; the
	// payload area ends there.
	dataEnd := sorted[0].MetaPos
	for _, e := range sorted[1:] {
		if e.MetaPos < dataEnd {
			dataEnd = e.MetaPos
		}
	}

	var (
		out     []Descriptor
		dropped int
	)
	for i := range sorted {
		e := sorted[i]
		e.Index = i

		var size int64
		if i < len(sorted)-1 {
			size = int64(sorted[i+1].Offset) - int64(e.Offset)
		} else {
			size = int64(dataEnd) - int64(e.Offset)
			if size < 0 {
				size = int64(partitionLen) - int64(e.Offset)
			}
		}

		if size <= 0 {
			dropped++
			continue
		}

		e.RawSize = uint32(size)
		e.SizeInferred = true
		out = append(out, e)
	}

	return out, dropped
}
