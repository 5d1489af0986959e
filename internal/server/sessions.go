package server

import (
	"sync"

	"github.com/google/uuid"
)

const redirectURLKey = "redirect_url"

// sessionStore — явное хранилище сессионных атрибутов "ключ-значение",
// отдельное для каждой браузерной сессии. Хранит, в частности, адрес
// страницы, запрошенной до перенаправления на форму входа.
type sessionStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func newSessionStore() *sessionStore {
	return &sessionStore{data: make(map[string]map[string]string)}
}

func (s *sessionStore) NewID() string {
	return uuid.New().String()
}

func (s *sessionStore) Set(sid, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, ok := s.data[sid]
	if !ok {
		attrs = make(map[string]string)
		s.data[sid] = attrs
	}
	attrs[key] = value
}

// Take возвращает значение и сразу удаляет его: атрибут одноразовый.
func (s *sessionStore) Take(sid, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attrs, ok := s.data[sid]
	if !ok {
		return "", false
	}
	value, ok := attrs[key]
	if !ok {
		return "", false
	}
	delete(attrs, key)
	if len(attrs) == 0 {
		delete(s.data, sid)
	}
	return value, true
}

func (s *sessionStore) Drop(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sid)
}
