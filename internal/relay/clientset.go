package relay

import (
	"errors"
	"sync"
)

var errBadIdentify = errors.New("malformed identify payload")

// clientSet maps connection ids to their live clients, so the broadcast
// path can resolve a registry session back to a send queue
type clientSet struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func newClientSet() *clientSet {
	return &clientSet{
		clients: make(map[string]*Client),
	}
}

func (s *clientSet) add(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.ConnID] = c
}

func (s *clientSet) get(connID string) (*Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[connID]
	return c, ok
}

func (s *clientSet) remove(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, connID)
}
