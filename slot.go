package mockrobot

import "sync"

// Slot admits at most one controller at a time.
type Slot struct {
	mu   sync.Mutex
	addr string
}

// Admit takes the slot for addr if it is free.
func (s *Slot) Admit(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr != "" {
		return false
	}
	s.addr = addr
	return true
}

// Release frees the slot if addr holds it.
func (s *Slot) Release(addr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr == "" || s.addr != addr {
		return false
	}
	s.addr = ""
	return true
}

func (s *Slot) Occupant() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr, s.addr != ""
}
