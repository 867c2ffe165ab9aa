package engine

import (
	"encoding/binary"
	"sort"

	"github.com/minio/highwayhash"

	"github.com/viant/dflow/indexalg"
)

var hashKey = make([]byte, 32) // zero key: de-duplication only needs a stable, not a secret, hash

// chunkIter enumerates a file's global index space as a nested counter
// over its dimensions (spec.md §4.6), one write-chunk selector map per
// step, in a fixed dimension order — sorted by name, since
// flow.WriteNode.Dimensions returns an unordered map and the odometer
// needs *some* fixed axis order, not a particular one — advancing the
// last dimension fastest.
type chunkIter struct {
	dims   []string
	sizes  []int
	chunk  []int
	counts []int
	idx    []int
	done   bool
}

// newChunkIter builds an iterator over dimSizes, using chunkSizes[d]
// as the chunk length along d when present, positive, and no larger
// than the dimension itself; otherwise the whole dimension is one
// chunk (spec.md §4.6's default).
func newChunkIter(dimSizes map[string]int, chunkSizes map[string]int) *chunkIter {
	dims := make([]string, 0, len(dimSizes))
	for d := range dimSizes {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	sizes := make([]int, len(dims))
	chunk := make([]int, len(dims))
	counts := make([]int, len(dims))
	for i, d := range dims {
		size := dimSizes[d]
		sizes[i] = size
		cs := chunkSizes[d]
		if cs <= 0 || cs > size {
			cs = size
		}
		if cs <= 0 {
			cs = 1
		}
		chunk[i] = cs
		n := (size + cs - 1) / cs
		if n == 0 {
			n = 1 // a zero-length dimension still yields one, empty, chunk
		}
		counts[i] = n
	}
	return &chunkIter{dims: dims, sizes: sizes, chunk: chunk, counts: counts, idx: make([]int, len(dims))}
}

// next returns the next write-chunk, keyed by dimension name, or false
// once every combination has been produced. A dimensionless file (no
// dims at all) produces exactly one, empty, chunk.
func (it *chunkIter) next() (map[string]indexalg.Selector, bool) {
	if it.done {
		return nil, false
	}
	sel := make(map[string]indexalg.Selector, len(it.dims))
	for i, d := range it.dims {
		start := it.idx[i] * it.chunk[i]
		stop := start + it.chunk[i]
		if stop > it.sizes[i] {
			stop = it.sizes[i]
		}
		sel[d] = indexalg.Range(start, stop, true, 1)
	}

	if len(it.dims) == 0 {
		it.done = true
		return sel, true
	}
	for i := len(it.dims) - 1; i >= 0; i-- {
		it.idx[i]++
		if it.idx[i] < it.counts[i] {
			break
		}
		it.idx[i] = 0
		if i == 0 {
			it.done = true
		}
	}
	return sel, true
}

// mirror reflects sel — always a contiguous step-1 range here, the
// only shape a write-chunk selector takes — across size, per spec.md
// §4.6's axis-inversion rule: start,stop,step becomes size-start-1,
// size-stop-1, -1.
func mirror(sel indexalg.Selector, size int) indexalg.Selector {
	start, _, length := indexalg.Resolve(sel, size)
	stop := start + length
	return indexalg.Range(size-start-1, size-stop-1, true, -1)
}

// chunkKey content-addresses a (variable, write-chunk) pair for the
// writer's de-duplication set (spec.md §4.6): a variable whose
// dimensions are a strict subset of the file's may see the same
// sub-chunk recur across several distinct file-level chunks.
func chunkKey(variable string, sel []indexalg.Selector) uint64 {
	buf := make([]byte, 0, 8*len(sel)*4+len(variable))
	buf = append(buf, variable...)
	var tmp [8]byte
	for _, s := range sel {
		binary.LittleEndian.PutUint64(tmp[:], uint64(s.Kind))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Start)))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Stop)))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(int64(s.Step)))
		buf = append(buf, tmp[:]...)
	}
	return highwayhash.Sum64(buf, hashKey)
}
