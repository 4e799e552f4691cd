package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/loco/data/db/documents.db"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/loco/data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/loco/data/indices/vectors.bin"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://127.0.0.1:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "http://127.0.0.1:11434"
	}
	if cfg.Engine.GenerationModel == "" {
		cfg.Engine.GenerationModel = "llama3.2"
	}
	if cfg.Engine.Temperature == 0 {
		cfg.Engine.Temperature = 0.7
	}
	if cfg.Engine.TopK == 0 {
		cfg.Engine.TopK = 3
	}
	if cfg.Engine.ChunkSimilarityThreshold == 0 {
		cfg.Engine.ChunkSimilarityThreshold = 0.7
	}
	if cfg.Retrieval.VectorWeight == 0 && cfg.Retrieval.LexicalWeight == 0 {
		cfg.Retrieval.VectorWeight = 0.5
		cfg.Retrieval.LexicalWeight = 0.5
	}
	if cfg.Retrieval.Candidates == 0 {
		cfg.Retrieval.Candidates = 50
	}
	if cfg.Retrieval.MaxContextChars == 0 {
		cfg.Retrieval.MaxContextChars = 8000
	}
	if cfg.Retrieval.SnippetLength == 0 {
		cfg.Retrieval.SnippetLength = 150
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
