package config

import "fmt"

// Engine settings bounds. Out-of-range values are rejected, not clamped.
const (
	TemperatureMin = 0.0
	TemperatureMax = 2.0
	TopKMin        = 1
	TopKMax        = 10
	ThresholdMin   = 0.0
	ThresholdMax   = 1.0
)

// EngineSettings are the admin-tunable knobs of the query pipeline. They are
// loaded from the config file at startup, mutable through the config API, and
// persisted back on change.
type EngineSettings struct {
	GenerationModel          string  `yaml:"generation_model" json:"generation_model"`
	Temperature              float64 `yaml:"temperature" json:"temperature"`
	TopK                     int     `yaml:"top_k" json:"top_k"`
	ChunkSimilarityThreshold float64 `yaml:"chunk_similarity_threshold" json:"chunk_similarity_threshold"`
}

// Validate checks every field against its allowed range.
func (s *EngineSettings) Validate() error {
	if s.GenerationModel == "" {
		return fmt.Errorf("generation_model cannot be empty")
	}
	if s.Temperature < TemperatureMin || s.Temperature > TemperatureMax {
		return fmt.Errorf("temperature must be between %g and %g", TemperatureMin, TemperatureMax)
	}
	if s.TopK < TopKMin || s.TopK > TopKMax {
		return fmt.Errorf("top_k must be between %d and %d", TopKMin, TopKMax)
	}
	if s.ChunkSimilarityThreshold < ThresholdMin || s.ChunkSimilarityThreshold > ThresholdMax {
		return fmt.Errorf("chunk_similarity_threshold must be between %g and %g", ThresholdMin, ThresholdMax)
	}
	return nil
}
