package querylog

import (
	"context"
	"encoding/json"
	"os"
	"sync"
)

// FileRecorder añade las entradas a un fichero, una línea JSON por entrada.
// Si el fichero no existe, lo crea.
type FileRecorder struct {
	filePath string
	mu       sync.Mutex
}

func NewFileRecorder(filePath string) *FileRecorder {
	return &FileRecorder{filePath: filePath}
}

func (r *FileRecorder) LogBatch(_ context.Context, entries []Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile lee todas las entradas de un fichero escrito por FileRecorder.
func ReadFile(filePath string) ([]Entry, error) {
	data, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer data.Close()

	var entries []Entry
	dec := json.NewDecoder(data)
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
