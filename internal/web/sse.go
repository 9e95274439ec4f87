package web

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// writeTimeout bounds writes to SSE clients so a stale connection cannot
// block a broadcast.
const writeTimeout = 2 * time.Second

// sseClient represents a connected event-stream subscriber.
type sseClient struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	id      string
}

// Broadcaster fans analysis events out to connected SSE clients.
type Broadcaster struct {
	clients map[string]*sseClient
	mu      sync.RWMutex
	nextID  int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[string]*sseClient)}
}

func (b *Broadcaster) addClient(w http.ResponseWriter) (*sseClient, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	client := &sseClient{
		id:      fmt.Sprintf("client-%d", b.nextID),
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	b.clients[client.id] = client
	count := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.id).Int("totalClients", count).Msg("SSE client connected")
	return client, nil
}

func (b *Broadcaster) removeClient(client *sseClient) {
	b.mu.Lock()
	_, exists := b.clients[client.id]
	delete(b.clients, client.id)
	count := len(b.clients)
	b.mu.Unlock()

	if exists {
		select {
		case <-client.done:
		default:
			close(client.done)
		}
	}

	log.Debug().Str("clientId", client.id).Int("totalClients", count).Msg("SSE client disconnected")
}

func (b *Broadcaster) removeClientByID(id string) {
	b.mu.RLock()
	client := b.clients[id]
	b.mu.RUnlock()
	if client != nil {
		b.removeClient(client)
	}
}

// Broadcast sends one event to all connected clients. Writes run
// concurrently with per-client timeouts; clients that fail or stall are
// dropped.
func (b *Broadcaster) Broadcast(data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE data")
		return
	}
	message := fmt.Sprintf("data: %s\n\n", payload)

	b.mu.RLock()
	clients := make([]*sseClient, 0, len(b.clients))
	for _, client := range b.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	deadCh := make(chan string, len(clients))
	var wg sync.WaitGroup
	for _, client := range clients {
		select {
		case <-client.done:
			continue
		default:
			wg.Add(1)
			go func(c *sseClient) {
				defer wg.Done()
				b.writeToClient(c, message, deadCh)
			}(client)
		}
	}
	wg.Wait()
	close(deadCh)

	for id := range deadCh {
		b.removeClientByID(id)
	}
}

func (b *Broadcaster) writeToClient(client *sseClient, message string, deadCh chan<- string) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := client.writer.Write([]byte(message)); err != nil {
			log.Debug().Str("clientId", client.id).Err(err).Msg("Failed to write to SSE client, marking for removal")
			deadCh <- client.id
			return
		}
		client.flusher.Flush()
	}()

	select {
	case <-done:
	case <-time.After(writeTimeout):
		log.Warn().Str("clientId", client.id).Dur("timeout", writeTimeout).Msg("SSE write timed out, marking client for removal")
		deadCh <- client.id
	case <-client.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// HandleSSE upgrades the request to an event stream and blocks until the
// client disconnects.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client, err := b.addClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.removeClient(client)

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"clientId\":%q}\n\n", client.id)
	client.flusher.Flush()

	<-r.Context().Done()
}
