package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

func feedbackAt(t *testing.T, seq int, embedding []float32, createdAt time.Time) models.Feedback {
	t.Helper()

	return models.Feedback{
		ID:        uuid.MustParse(fmt.Sprintf("018e0000-0000-7000-8000-%012d", seq)),
		Text:      fmt.Sprintf("feedback item %d", seq),
		Embedding: embedding,
		CreatedAt: createdAt,
	}
}

func TestClusterParams_Validate(t *testing.T) {
	t.Run("accepts sensible parameters", func(t *testing.T) {
		err := ClusterParams{MinClusterSize: 3, MaxClusters: 20, MinSimilarity: 0.7}.Validate()
		assert.NoError(t, err)
	})

	t.Run("rejects min_cluster_size below 1", func(t *testing.T) {
		err := ClusterParams{MinClusterSize: 0, MaxClusters: 20, MinSimilarity: 0.7}.Validate()
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
	})

	t.Run("rejects max_clusters below 1", func(t *testing.T) {
		err := ClusterParams{MinClusterSize: 3, MaxClusters: 0, MinSimilarity: 0.7}.Validate()
		assert.ErrorIs(t, err, vocerrors.ErrValidation)
	})

	t.Run("rejects min_similarity outside (0,1)", func(t *testing.T) {
		for _, sim := range []float64{0, 1, -0.5, 1.5} {
			err := ClusterParams{MinClusterSize: 3, MaxClusters: 20, MinSimilarity: sim}.Validate()
			assert.ErrorIs(t, err, vocerrors.ErrValidation, "min_similarity=%v", sim)
		}
	})
}

func TestClusteringService_Partition(t *testing.T) {
	svc := NewClusteringService()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	params := ClusterParams{MinClusterSize: 3, MaxClusters: 20, MinSimilarity: 0.7}

	t.Run("empty input yields empty partition", func(t *testing.T) {
		partition, err := svc.Partition(nil, params)
		require.NoError(t, err)
		assert.Empty(t, partition.Clusters)
		assert.Empty(t, partition.Unclustered)
	})

	t.Run("mixed embedding dimensions are fatal", func(t *testing.T) {
		items := []models.Feedback{
			feedbackAt(t, 1, []float32{1, 0, 0}, base),
			feedbackAt(t, 2, []float32{1, 0}, base),
		}
		partition, err := svc.Partition(items, params)
		assert.Nil(t, partition)
		assert.ErrorIs(t, err, vocerrors.ErrDimensionMismatch)
	})

	t.Run("groups similar items and leaves the residue unclustered", func(t *testing.T) {
		// Two tight directions plus one outlier.
		items := []models.Feedback{
			feedbackAt(t, 1, []float32{1, 0, 0}, base),
			feedbackAt(t, 2, []float32{1, 0.1, 0}, base.Add(time.Minute)),
			feedbackAt(t, 3, []float32{1, 0, 0.1}, base.Add(2*time.Minute)),
			feedbackAt(t, 4, []float32{0, 1, 0}, base.Add(3*time.Minute)),
			feedbackAt(t, 5, []float32{0.1, 1, 0}, base.Add(4*time.Minute)),
			feedbackAt(t, 6, []float32{0, 1, 0.1}, base.Add(5*time.Minute)),
			feedbackAt(t, 7, []float32{0, 0, 1}, base.Add(6*time.Minute)),
		}

		partition, err := svc.Partition(items, params)
		require.NoError(t, err)
		require.Len(t, partition.Clusters, 2)
		require.Len(t, partition.Unclustered, 1)

		assert.Equal(t, items[6].ID, partition.Unclustered[0].ID)
		for _, cluster := range partition.Clusters {
			assert.Len(t, cluster, 3)
		}
		// Equal sizes tie-break on the earliest member.
		assert.Equal(t, items[0].ID, partition.Clusters[0][0].ID)
		assert.Equal(t, items[3].ID, partition.Clusters[1][0].ID)
	})

	t.Run("groups below min_cluster_size dissolve into the residue", func(t *testing.T) {
		items := []models.Feedback{
			feedbackAt(t, 1, []float32{1, 0, 0}, base),
			feedbackAt(t, 2, []float32{1, 0.1, 0}, base.Add(time.Minute)),
		}

		partition, err := svc.Partition(items, params)
		require.NoError(t, err)
		assert.Empty(t, partition.Clusters)
		assert.Len(t, partition.Unclustered, 2)
	})

	t.Run("max_clusters merges the most similar clusters", func(t *testing.T) {
		items := []models.Feedback{
			feedbackAt(t, 1, []float32{1, 0, 0}, base),
			feedbackAt(t, 2, []float32{1, 0.1, 0}, base.Add(time.Minute)),
			feedbackAt(t, 3, []float32{1, 0, 0.1}, base.Add(2*time.Minute)),
			feedbackAt(t, 4, []float32{0, 1, 0}, base.Add(3*time.Minute)),
			feedbackAt(t, 5, []float32{0.1, 1, 0}, base.Add(4*time.Minute)),
			feedbackAt(t, 6, []float32{0, 1, 0.1}, base.Add(5*time.Minute)),
		}

		capped := ClusterParams{MinClusterSize: 3, MaxClusters: 1, MinSimilarity: 0.7}
		partition, err := svc.Partition(items, capped)
		require.NoError(t, err)
		require.Len(t, partition.Clusters, 1)
		assert.Len(t, partition.Clusters[0], 6)
		assert.Empty(t, partition.Unclustered)
	})

	t.Run("identical input yields identical partitions", func(t *testing.T) {
		items := []models.Feedback{
			feedbackAt(t, 1, []float32{1, 0, 0}, base),
			feedbackAt(t, 2, []float32{1, 0.1, 0}, base),
			feedbackAt(t, 3, []float32{1, 0, 0.1}, base),
			feedbackAt(t, 4, []float32{0, 1, 0}, base),
			feedbackAt(t, 5, []float32{0.1, 1, 0}, base),
			feedbackAt(t, 6, []float32{0, 1, 0.1}, base),
		}

		first, err := svc.Partition(items, params)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			again, err := svc.Partition(items, params)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical direction is 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	})

	t.Run("orthogonal is 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("zero vector is 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), 1e-9)
	})
}

func TestMeanVector(t *testing.T) {
	mean := meanVector([][]float32{{1, 2}, {3, 4}})
	require.Len(t, mean, 2)
	assert.InDelta(t, 2.0, float64(mean[0]), 1e-6)
	assert.InDelta(t, 3.0, float64(mean[1]), 1e-6)

	assert.Nil(t, meanVector(nil))
}
