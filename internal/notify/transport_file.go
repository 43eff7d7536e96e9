package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

type fileTransport struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileTransport appends one JSON document per notification to path.
func NewFileTransport(path string) (Transport, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("notify: open file: %w", err)
	}
	return &fileTransport{file: f}, nil
}

func (t *fileTransport) Emit(_ context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err = t.file.Write(data)
	return err
}

func (t *fileTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
