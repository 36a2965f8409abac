// Package ivf implements an inverted-file (IVF) vector index.
//
// Vectors are partitioned around nlist centroids trained with k-means.
// A query ranks the centroids by distance and scans the vectors of the
// nprobe nearest partitions exhaustively. With IndexFlat a single
// partition holds every vector.
//
// Trained centroids can be serialised with MarshalBinary and restored with
// UnmarshalBinary so stores can skip retraining while the data is unchanged.
package ivf
