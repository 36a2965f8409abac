package ivf

// Neighbour is a search candidate.
type Neighbour struct {
	ID       int64
	Distance float64
}

// farther orders neighbours by descending distance, then descending id, so
// the worst candidate sits at the heap root.
func farther(a, b Neighbour) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// neighbours implements heap.Interface as a max-heap of the current top-k.
type neighbours []Neighbour

func (h neighbours) Len() int           { return len(h) }
func (h neighbours) Less(i, j int) bool { return farther(h[i], h[j]) }
func (h neighbours) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighbours) Push(x any) {
	*h = append(*h, x.(Neighbour))
}

func (h *neighbours) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
