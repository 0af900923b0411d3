package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/scriptura/internal/models"
)

// WriteArtifact saves embedded verses as a flat JSON list. The artifact is
// the hand-off between the embedding stage and the index-upload stage;
// because index IDs derive only from verse location and corpus position,
// re-uploading the same artifact is idempotent.
func WriteArtifact(path string, verses []models.EmbeddedVerse) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(verses, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal embedded verses: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	return nil
}

// ReadArtifact loads embedded verses from a previously written artifact.
func ReadArtifact(path string) ([]models.EmbeddedVerse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var verses []models.EmbeddedVerse
	if err := json.Unmarshal(data, &verses); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	return verses, nil
}
