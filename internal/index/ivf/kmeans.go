package ivf

// maxIterations bounds Lloyd refinement.
const maxIterations = 25

// kmeans partitions vectors into k clusters and returns the centroids.
// Initial centroids are evenly spaced input vectors, so training is
// deterministic for a given input order.
func kmeans(vectors [][]float32, mags []float32, k int, dist DistanceFunc, spherical bool) [][]float32 {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		centroids[c] = append([]float32(nil), vectors[c*n/k]...)
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxIterations; iter++ {
		cmags := magnitudes(centroids)
		changed := false
		for i, v := range vectors {
			best := nearest(v, mags[i], centroids, cmags, dist)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}
		for c := range centroids {
			// Empty clusters keep their previous centroid.
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
			if spherical {
				normalise(centroids[c])
			}
		}
	}
	return centroids
}

// nearest returns the index of the centroid closest to v.
// Ties go to the lower index.
func nearest(v []float32, mv float32, centroids [][]float32, cmags []float32, dist DistanceFunc) int {
	best, bestDist := 0, 0.0
	for c, centroid := range centroids {
		d := dist(v, centroid, mv, cmags[c])
		if c == 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func magnitudes(vectors [][]float32) []float32 {
	out := make([]float32, len(vectors))
	for i, v := range vectors {
		out[i] = Magnitude(v)
	}
	return out
}

func normalise(v []float32) {
	m := Magnitude(v)
	if m == 0 {
		return
	}
	for i := range v {
		v[i] /= m
	}
}
