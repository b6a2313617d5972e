package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Alice344/MedSQLAgent/internal/errors"
)

const (
	indexFileName    = "schema_index.json"
	metadataFileName = "schema_metadata.json"

	storeDirPerm  = 0755
	storeFilePerm = 0644
)

// indexFile is the serialized vector index
type indexFile struct {
	Dimensions int         `json:"dimensions"`
	Vectors    [][]float32 `json:"vectors"`
}

// save persists vectors then metadata, each through a temp-file rename so a
// crash mid-write leaves the previous consistent pair on disk. The metadata
// write comes second: an index without matching metadata is detected as
// corruption on load, while torn metadata alone would silently desynchronize
// search results. Caller holds the write lock.
func (s *Store) save() error {
	if err := os.MkdirAll(s.path, storeDirPerm); err != nil {
		return errors.Wrap(err, errors.ErrTypeFileSystem, "failed to create store directory")
	}

	index := indexFile{
		Dimensions: s.embedder.GetDimensions(),
		Vectors:    s.vectors,
	}

	if err := writeJSONAtomic(filepath.Join(s.path, indexFileName), index); err != nil {
		return errors.Wrap(err, errors.ErrTypeIndex, "failed to persist vector index")
	}

	if err := writeJSONAtomic(filepath.Join(s.path, metadataFileName), s.records); err != nil {
		return errors.Wrap(err, errors.ErrTypeIndex, "failed to persist schema metadata")
	}

	return nil
}

// load restores persisted state. Missing files mean a fresh store; a
// record/vector count mismatch means the two artifacts are out of lockstep
// and the store refuses to serve them.
func (s *Store) load() error {
	indexPath := filepath.Join(s.path, indexFileName)
	metadataPath := filepath.Join(s.path, metadataFileName)

	indexExists := fileExists(indexPath)
	metadataExists := fileExists(metadataPath)

	if !indexExists && !metadataExists {
		return nil
	}

	if indexExists != metadataExists {
		return errors.New(errors.ErrTypeIndex,
			"schema store is corrupted: index and metadata files are not paired").
			WithSuggestion("Delete the store directory and refresh schemas to rebuild the index")
	}

	var index indexFile
	if err := readJSON(indexPath, &index); err != nil {
		return errors.Wrap(err, errors.ErrTypeIndex, "failed to read vector index")
	}

	var records []SchemaRecord
	if err := readJSON(metadataPath, &records); err != nil {
		return errors.Wrap(err, errors.ErrTypeIndex, "failed to read schema metadata")
	}

	if len(index.Vectors) != len(records) {
		return errors.Newf(errors.ErrTypeIndex,
			"schema store is corrupted: %d vectors but %d metadata records",
			len(index.Vectors), len(records)).
			WithSuggestion("Delete the store directory and refresh schemas to rebuild the index")
	}

	s.vectors = index.Vectors
	s.records = records

	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, storeFilePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(tmpPath), err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}

	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
