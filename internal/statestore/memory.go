// Package statestore хранит закодированное состояние диалога по chat id.
package statestore

import (
	"context"
	"sync"
)

// Memory: хранилище в памяти процесса для тестов и локального запуска без БД.
type Memory struct {
	mu sync.RWMutex
	m  map[int64][]byte
}

func NewMemory() *Memory { return &Memory{m: make(map[int64][]byte)} }

func (s *Memory) Load(_ context.Context, chatID int64) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[chatID]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *Memory) Save(_ context.Context, chatID int64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = append([]byte(nil), payload...)
	return nil
}

func (s *Memory) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
	return nil
}
