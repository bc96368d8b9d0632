package creds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore хранит учётные данные в JSON-файле с правами 0600.
// Файл перечитывается на каждый Get: содержимое маленькое (три ключа),
// зато параллельные процессы видят актуальное состояние.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore создаёт файловое хранилище по указанному пути.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("creds: empty file store path")
	}

	return &FileStore{path: path}, nil
}

// Get возвращает значение ключа или пустую строку, если ключа (или файла) нет.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return "", err
	}

	return m[key], nil
}

// Set сохраняет значение ключа.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}

	m[key] = value

	return s.write(m)
}

// RemoveAll удаляет перечисленные ключи.
func (s *FileStore) RemoveAll(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.read()
	if err != nil {
		return err
	}

	for _, k := range keys {
		delete(m, k)
	}

	return s.write(m)
}

// Close — no-op для файлового хранилища.
func (s *FileStore) Close() error { return nil }

// read загружает файл; отсутствующий файл эквивалентен пустому хранилищу.
func (s *FileStore) read() (map[string]string, error) {
	const op = "creds.file.read"

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	const op = "creds.file.write"

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Пишем во временный файл и переименовываем: частично записанный
	// файл не должен уничтожить существующие учётные данные.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
