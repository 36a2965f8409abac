package ivf

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// ErrDimension is returned when a vector length does not match the index.
var ErrDimension = errors.New("ivf: dimension mismatch")

// ErrNotTrained is returned when vectors are added before training.
var ErrNotTrained = errors.New("ivf: index not trained")

// Index is an inverted-file index over float32 vectors.
// It is not safe for concurrent mutation; concurrent Search calls are safe.
type Index struct {
	spec domain.IndexSpec
	dim  int
	dist DistanceFunc

	centroids [][]float32
	cmags     []float32
	trained   bool

	// trainedOn is the number of vectors the centroids were trained from.
	trainedOn int

	ids   []int64
	vecs  [][]float32
	mags  []float32
	lists [][]int
}

// New creates an empty index for vectors of length dim.
func New(spec domain.IndexSpec, dim int) (*Index, error) {
	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Kind == domain.IndexHNSW {
		return nil, fmt.Errorf("%w: index kind %s is not supported by the local index", domain.ErrSchema, spec.Kind)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrSchema, dim)
	}
	return &Index{
		spec: spec,
		dim:  dim,
		dist: Function(spec.Metric),
	}, nil
}

// Spec returns the index specification.
func (ix *Index) Spec() domain.IndexSpec {
	return ix.spec
}

// Partitions returns the number of trained partitions.
func (ix *Index) Partitions() int {
	return len(ix.lists)
}

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	return len(ix.ids)
}

// Trained reports whether centroids are available.
func (ix *Index) Trained() bool {
	return ix.trained
}

// TrainedOn returns the number of vectors used for training.
func (ix *Index) TrainedOn() int {
	return ix.trainedOn
}

// Train computes partition centroids from vectors and clears indexed data.
// IVF uses min(nlist, len(vectors)) partitions; FLAT uses one.
func (ix *Index) Train(vectors [][]float32) error {
	if err := ix.checkDims(vectors); err != nil {
		return err
	}

	ix.reset()
	ix.trainedOn = len(vectors)
	ix.trained = true

	if ix.spec.Kind == domain.IndexFlat || len(vectors) == 0 {
		ix.centroids = nil
		ix.cmags = nil
		ix.lists = make([][]int, 1)
		return nil
	}

	ix.centroids = kmeans(vectors, magnitudes(vectors), ix.spec.Params.NList, ix.dist,
		ix.spec.Metric == domain.MetricCosine)
	ix.cmags = magnitudes(ix.centroids)
	ix.lists = make([][]int, len(ix.centroids))
	return nil
}

// Add assigns vectors to their nearest partitions.
func (ix *Index) Add(ids []int64, vectors [][]float32) error {
	if !ix.trained {
		return ErrNotTrained
	}
	if len(ids) != len(vectors) {
		return fmt.Errorf("ivf: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	if err := ix.checkDims(vectors); err != nil {
		return err
	}

	for i, v := range vectors {
		m := Magnitude(v)
		list := 0
		if len(ix.centroids) > 0 {
			list = nearest(v, m, ix.centroids, ix.cmags, ix.dist)
		}
		pos := len(ix.ids)
		ix.ids = append(ix.ids, ids[i])
		ix.vecs = append(ix.vecs, v)
		ix.mags = append(ix.mags, m)
		ix.lists[list] = append(ix.lists[list], pos)
	}
	return nil
}

// Build trains on vectors and adds them.
func (ix *Index) Build(ids []int64, vectors [][]float32) error {
	if err := ix.Train(vectors); err != nil {
		return err
	}
	return ix.Add(ids, vectors)
}

// Search returns up to k neighbours of query, nearest first, ties by id.
// nprobe partitions are scanned; zero uses the index setting.
func (ix *Index) Search(query []float32, k, nprobe int) ([]Neighbour, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimension, len(query), ix.dim)
	}
	if k <= 0 || len(ix.ids) == 0 {
		return []Neighbour{}, nil
	}

	qm := Magnitude(query)
	h := &neighbours{}
	heap.Init(h)
	for _, list := range ix.probe(query, qm, nprobe) {
		for _, pos := range ix.lists[list] {
			n := Neighbour{ID: ix.ids[pos], Distance: ix.dist(query, ix.vecs[pos], qm, ix.mags[pos])}
			if math.IsNaN(n.Distance) {
				continue
			}
			if h.Len() < k {
				heap.Push(h, n)
			} else if farther((*h)[0], n) {
				heap.Pop(h)
				heap.Push(h, n)
			}
		}
	}

	result := make([]Neighbour, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Neighbour)
	}
	return result, nil
}

// probe returns the partitions to scan, nearest centroid first.
func (ix *Index) probe(query []float32, qm float32, nprobe int) []int {
	if len(ix.centroids) == 0 {
		return []int{0}
	}
	if nprobe <= 0 {
		nprobe = ix.spec.Params.NProbe
	}
	nprobe = max(1, min(nprobe, len(ix.centroids)))

	type ranked struct {
		list int
		dist float64
	}
	order := make([]ranked, len(ix.centroids))
	for c, centroid := range ix.centroids {
		order[c] = ranked{list: c, dist: ix.dist(query, centroid, qm, ix.cmags[c])}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].dist < order[j].dist })

	lists := make([]int, nprobe)
	for i := range lists {
		lists[i] = order[i].list
	}
	return lists
}

func (ix *Index) checkDims(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index has %d", ErrDimension, i, len(v), ix.dim)
		}
	}
	return nil
}

func (ix *Index) reset() {
	ix.ids, ix.vecs, ix.mags, ix.lists = nil, nil, nil, nil
}

// MarshalBinary stores the trained state:
// dim(uint32), trainedOn(uint32), flat(uint32), k(uint32), then k centroids of float32[dim].
// Indexed vectors are not included.
func (ix *Index) MarshalBinary() ([]byte, error) {
	if !ix.trained {
		return nil, ErrNotTrained
	}
	out := make([]byte, 16, 16+len(ix.centroids)*ix.dim*4)
	binary.LittleEndian.PutUint32(out[0:4], uint32(ix.dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(ix.trainedOn))
	if len(ix.centroids) == 0 {
		binary.LittleEndian.PutUint32(out[8:12], 1)
	}
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(ix.centroids)))
	for _, c := range ix.centroids {
		out = append(out, EncodeVector(c)...)
	}
	return out, nil
}

// UnmarshalBinary restores trained state produced by MarshalBinary and
// clears indexed data.
func (ix *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return errors.New("ivf: invalid data")
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	if dim != ix.dim {
		return fmt.Errorf("%w: stored state has %d dimensions, index has %d", ErrDimension, dim, ix.dim)
	}
	trainedOn := int(binary.LittleEndian.Uint32(data[4:8]))
	flat := binary.LittleEndian.Uint32(data[8:12]) == 1
	k := int(binary.LittleEndian.Uint32(data[12:16]))
	if len(data) != 16+k*dim*4 {
		return errors.New("ivf: truncated centroids")
	}

	centroids := make([][]float32, k)
	for c := range centroids {
		off := 16 + c*dim*4
		v, err := DecodeVector(data[off : off+dim*4])
		if err != nil {
			return err
		}
		centroids[c] = v
	}

	ix.reset()
	ix.trained = true
	ix.trainedOn = trainedOn
	if flat || k == 0 {
		ix.centroids, ix.cmags = nil, nil
		ix.lists = make([][]int, 1)
		return nil
	}
	ix.centroids = centroids
	ix.cmags = magnitudes(centroids)
	ix.lists = make([][]int, k)
	return nil
}
