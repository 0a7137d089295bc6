// Package service implements the clustering, synthesis, scoring and reporting
// logic of the engine.
package service

import (
	"math"
	"sort"
	"time"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// ClusterParams configures one clustering run.
type ClusterParams struct {
	MinClusterSize int
	MaxClusters    int
	MinSimilarity  float64
}

// Partition is the output of the clusterer: qualifying clusters plus the
// residual items that did not reach min cluster size.
type Partition struct {
	Clusters    [][]models.Feedback
	Unclustered []models.Feedback
}

// ClusteringService groups embedded feedback by cosine similarity. The merge
// order is totally ordered so identical input always yields an identical
// partition.
type ClusteringService struct{}

// NewClusteringService creates a new clustering service.
func NewClusteringService() *ClusteringService {
	return &ClusteringService{}
}

// Validate checks the clustering parameters before any state is touched.
func (p ClusterParams) Validate() error {
	if p.MinClusterSize < 1 {
		return vocerrors.NewValidationError("min_cluster_size", "min_cluster_size must be at least 1")
	}
	if p.MaxClusters < 1 {
		return vocerrors.NewValidationError("max_clusters", "max_clusters must be at least 1")
	}
	if p.MinSimilarity <= 0 || p.MinSimilarity >= 1 {
		return vocerrors.NewValidationError("min_similarity", "min_similarity must be in (0, 1)")
	}

	return nil
}

type mergeEdge struct {
	a, b       int
	similarity float64
}

// Partition groups items whose pairwise cosine similarity reaches
// MinSimilarity, dissolves groups below MinClusterSize into the unclustered
// residue, and merges the most similar clusters until MaxClusters is
// satisfied. Items are expected to carry embeddings of one dimensionality;
// a mismatch is fatal for the run.
func (s *ClusteringService) Partition(items []models.Feedback, params ClusterParams) (*Partition, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return &Partition{Clusters: [][]models.Feedback{}, Unclustered: []models.Feedback{}}, nil
	}

	dim := len(items[0].Embedding)
	for _, item := range items {
		if len(item.Embedding) != dim {
			return nil, vocerrors.NewDimensionMismatchError(dim, len(item.Embedding))
		}
	}

	edges := thresholdedEdges(items, params.MinSimilarity)

	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, e := range edges {
		ra, rb := find(e.a), find(e.b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	componentsByRoot := make(map[int][]models.Feedback)
	for i, item := range items {
		root := find(i)
		componentsByRoot[root] = append(componentsByRoot[root], item)
	}

	clusters := make([][]models.Feedback, 0, len(componentsByRoot))
	unclustered := make([]models.Feedback, 0)
	for _, members := range componentsByRoot {
		sortMembers(members)
		if len(members) >= params.MinClusterSize {
			clusters = append(clusters, members)
		} else {
			unclustered = append(unclustered, members...)
		}
	}
	sortMembers(unclustered)
	sortClusters(clusters)

	clusters = capClusters(clusters, params.MaxClusters)
	sortClusters(clusters)

	return &Partition{Clusters: clusters, Unclustered: unclustered}, nil
}

// thresholdedEdges returns all pairs at or above the similarity threshold in a
// total merge order: similarity descending, then earlier pair timestamp, then
// smaller pair IDs.
func thresholdedEdges(items []models.Feedback, minSimilarity float64) []mergeEdge {
	edges := make([]mergeEdge, 0)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			sim := cosineSimilarity(items[i].Embedding, items[j].Embedding)
			if sim >= minSimilarity {
				edges = append(edges, mergeEdge{a: i, b: j, similarity: sim})
			}
		}
	}

	sort.Slice(edges, func(x, y int) bool {
		if edges[x].similarity != edges[y].similarity {
			return edges[x].similarity > edges[y].similarity
		}
		tx := pairTimestamp(items, edges[x])
		ty := pairTimestamp(items, edges[y])
		if !tx.Equal(ty) {
			return tx.Before(ty)
		}
		return pairKey(items, edges[x]) < pairKey(items, edges[y])
	})

	return edges
}

func pairTimestamp(items []models.Feedback, e mergeEdge) time.Time {
	ta, tb := items[e.a].CreatedAt, items[e.b].CreatedAt
	if ta.Before(tb) {
		return ta
	}
	return tb
}

func pairKey(items []models.Feedback, e mergeEdge) string {
	ka, kb := items[e.a].ID.String(), items[e.b].ID.String()
	if ka < kb {
		return ka + kb
	}
	return kb + ka
}

// capClusters merges the two most similar clusters (by centroid similarity)
// until the cap is satisfied. Ties prefer the larger combined size, then the
// earliest member timestamp.
func capClusters(clusters [][]models.Feedback, maxClusters int) [][]models.Feedback {
	for len(clusters) > maxClusters {
		bestA, bestB := -1, -1
		bestSim := math.Inf(-1)
		bestSize := -1
		var bestTime time.Time

		centroids := make([][]float32, len(clusters))
		for i, members := range clusters {
			centroids[i] = meanVector(embeddingsOf(members))
		}

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				sim := cosineSimilarity(centroids[i], centroids[j])
				size := len(clusters[i]) + len(clusters[j])
				earliest := earliestTimestamp(clusters[i], clusters[j])

				better := sim > bestSim ||
					(sim == bestSim && size > bestSize) ||
					(sim == bestSim && size == bestSize && earliest.Before(bestTime))
				if better {
					bestA, bestB, bestSim, bestSize, bestTime = i, j, sim, size, earliest
				}
			}
		}

		merged := append(append([]models.Feedback{}, clusters[bestA]...), clusters[bestB]...)
		sortMembers(merged)

		next := make([][]models.Feedback, 0, len(clusters)-1)
		for i, c := range clusters {
			if i != bestA && i != bestB {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
	}

	return clusters
}

func earliestTimestamp(a, b []models.Feedback) time.Time {
	earliest := a[0].CreatedAt
	for _, item := range a {
		if item.CreatedAt.Before(earliest) {
			earliest = item.CreatedAt
		}
	}
	for _, item := range b {
		if item.CreatedAt.Before(earliest) {
			earliest = item.CreatedAt
		}
	}
	return earliest
}

func sortMembers(members []models.Feedback) {
	sort.Slice(members, func(i, j int) bool {
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.Before(members[j].CreatedAt)
		}
		return members[i].ID.String() < members[j].ID.String()
	})
}

func sortClusters(clusters [][]models.Feedback) {
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i]) != len(clusters[j]) {
			return len(clusters[i]) > len(clusters[j])
		}
		ti, tj := clusters[i][0].CreatedAt, clusters[j][0].CreatedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return clusters[i][0].ID.String() < clusters[j][0].ID.String()
	})
}

func embeddingsOf(members []models.Feedback) [][]float32 {
	vecs := make([][]float32, len(members))
	for i, m := range members {
		vecs[i] = m.Embedding
	}
	return vecs
}

// meanVector computes the elementwise mean of vectors of equal length.
func meanVector(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}

	sums := make([]float64, len(vecs[0]))
	for _, vec := range vecs {
		for i, v := range vec {
			sums[i] += float64(v)
		}
	}

	mean := make([]float32, len(sums))
	for i, s := range sums {
		mean[i] = float32(s / float64(len(vecs)))
	}

	return mean
}

// cosineSimilarity computes cosine similarity in float64 for stability.
// Zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
