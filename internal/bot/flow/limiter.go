package flow

import "sync"

// ChatLimiter не даёт двум ходам одного чата выполняться одновременно.
type ChatLimiter struct {
	mu   sync.Mutex
	byID map[int64]*sync.Mutex
}

func NewChatLimiter() *ChatLimiter {
	return &ChatLimiter{byID: make(map[int64]*sync.Mutex)}
}

func (l *ChatLimiter) Lock(chatID int64) func() {
	l.mu.Lock()
	m, ok := l.byID[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.byID[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }
}
