package firmware

import "fmt"

// Adjacency is the result of checking that two partitions which are
// expected to abut actually do. The comparison is byte-exact; any gap,
// positive or negative, is a warning rather than a failure since the
// image may legitimately contain unused space.
type Adjacency struct {
	Before string
	After  string
	Gap    int64
}

// OK reports whether the two partitions are exactly contiguous.
func (a Adjacency) OK() bool {
	return a.Gap == 0
}

func (a Adjacency) String() string {
	if a.OK() {
		return fmt.Sprintf("PASS: %s immediately precedes %s", a.Before, a.After)
	}
	return fmt.Sprintf("WARN: gap of %d bytes between %s and %s", a.Gap, a.Before, a.After)
}

// adjacentPairs lists the partition pairs the HIFIEC20 image packs
// back to back.
var adjacentPairs = [][2]string{
	{PartResource, PartAudioDSP},
	{PartAudioDSP, PartMainFS},
}

// VerifyAdjacency checks each expected contiguous pair. Pairs with a
// missing partition are skipped.
func (t Table) VerifyAdjacency() []Adjacency {
	var out []Adjacency
	for _, pair := range adjacentPairs {
		before, ok := t[pair[0]]
		if !ok {
			continue
		}
		after, ok := t[pair[1]]
		if !ok {
			continue
		}
		out = append(out, Adjacency{
			Before: before.Name,
			After:  after.Name,
			Gap:    int64(after.Offset) - int64(before.End()),
		})
	}
	return out
}

// Extract populates Data for every partition whose byte range lies
// within the image, slicing rather than copying. Partitions that run
// past the end of the image are left empty and returned so the caller
// can report them; partial extraction is expected on truncated images.
func (t Table) Extract(image []byte) (skipped []string) {
	for _, name := range t.Names() {
		p := t[name]
		if int64(p.Offset)+int64(p.Size) > int64(len(image)) {
			skipped = append(skipped, name)
			continue
		}
		p.Data = image[p.Offset:p.End()]
	}
	return skipped
}
