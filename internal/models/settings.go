package models

// SettingsPatch is a partial update to the engine settings. Nil fields are
// left unchanged. Field values are validated against the allowed ranges
// before any of them is applied.
type SettingsPatch struct {
	GenerationModel          *string  `json:"generation_model,omitempty"`
	Temperature              *float64 `json:"temperature,omitempty"`
	TopK                     *int     `json:"top_k,omitempty"`
	ChunkSimilarityThreshold *float64 `json:"chunk_similarity_threshold,omitempty"`
}
