package postprocessors

import (
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/postprocessors/normalise"
	"github.com/ragify/ragify/internal/postprocessors/splitter"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("normalise", buildNormalise)
	r.Register("splitter", buildSplitter)
}

func buildNormalise(_ map[string]any) (driven.PostProcessor, error) {
	return normalise.New(), nil
}

// buildSplitter creates a splitter processor from generic config.
// Supported config keys:
//   - chunk_size (int): Runes per segment (default: 1000)
//   - overlap (int): Overlapping runes between segments (default: 200)
//   - strategy (string): "recursive" (default) or "fixed"
func buildSplitter(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []splitter.Option

	if _, ok := cfg["chunk_size"]; ok {
		opts = append(opts, splitter.WithChunkSize(getIntFromConfig(cfg, "chunk_size")))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, splitter.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	if s, ok := cfg["strategy"].(string); ok {
		opts = append(opts, splitter.WithStrategy(domain.SplitStrategy(s)))
	}

	return splitter.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
