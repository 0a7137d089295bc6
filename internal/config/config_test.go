package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue float64
		envValue     string
		shouldSet    bool
		want         float64
	}{
		{
			name:         "parses a valid float",
			key:          "TEST_FLOAT",
			defaultValue: 1.0,
			envValue:     "0.85",
			shouldSet:    true,
			want:         0.85,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_FLOAT_MISSING",
			defaultValue: 30,
			shouldSet:    false,
			want:         30,
		},
		{
			name:         "returns default on garbage",
			key:          "TEST_FLOAT_BAD",
			defaultValue: 5,
			envValue:     "not-a-number",
			shouldSet:    true,
			want:         5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsFloat(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("requires API_KEY", func(t *testing.T) {
		t.Setenv("API_KEY", "")

		if _, err := Load(); err == nil {
			t.Error("Load() expected error when API_KEY is not set")
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}

		if cfg.Port != "8080" {
			t.Errorf("Port = %v, want 8080", cfg.Port)
		}
		if cfg.EmbeddingDimensions != 1536 {
			t.Errorf("EmbeddingDimensions = %v, want 1536", cfg.EmbeddingDimensions)
		}
		if cfg.ClusterMinClusterSize != 3 {
			t.Errorf("ClusterMinClusterSize = %v, want 3", cfg.ClusterMinClusterSize)
		}
		if cfg.ClusterMinSimilarity != 0.7 {
			t.Errorf("ClusterMinSimilarity = %v, want 0.7", cfg.ClusterMinSimilarity)
		}
		if cfg.VOCACVCeiling != 1_000_000 {
			t.Errorf("VOCACVCeiling = %v, want 1000000", cfg.VOCACVCeiling)
		}
	})

	t.Run("rejects a non-positive ACV ceiling", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("VOC_ACV_CEILING", "0")

		if _, err := Load(); err == nil {
			t.Error("Load() expected error for VOC_ACV_CEILING=0")
		}
	})

	t.Run("rejects min similarity outside (0,1)", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("CLUSTER_MIN_SIMILARITY", "1.0")

		if _, err := Load(); err == nil {
			t.Error("Load() expected error for CLUSTER_MIN_SIMILARITY=1.0")
		}
	})
}
