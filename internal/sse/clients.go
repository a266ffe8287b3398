// Package sse tracks the connected Server-Sent Events clients of the viewer.
package sse

import (
	"sync"
)

const EventReload = "reload"

type Client struct {
	Msg chan string
}

func NewClient() *Client {
	// One buffered slot so a reload raised while the client is between
	// writes is not lost.
	return &Client{Msg: make(chan string, 1)}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.Msg)
	}
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast offers msg to every client. Clients that are not keeping up
// skip it rather than block the sender.
func (s *SSEClients) Broadcast(msg string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.Msg <- msg:
		default:
		}
	}
}
