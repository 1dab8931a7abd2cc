// Command captionviewer consumes the segment/transcript Kafka topics
// and fans each event out to connected browsers over a WebSocket, for
// watching captions arrive live during a demo. Folded in from the
// teacher's standalone tools/transcript-viewer (its own nested
// go.mod dropped; it now shares the root module's kafka-go and
// gorilla/websocket versions).
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
)

//go:embed static/*
var staticFiles embed.FS

// Hub fans out Kafka-sourced segment/transcript events (forwarded as
// raw JSON, since the two topics carry different event shapes) to
// every connected viewer.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan json.RawMessage
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func newHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan json.RawMessage, 100),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			log.Printf("client connected, total=%d", len(h.clients))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
			log.Printf("client disconnected, total=%d", len(h.clients))

		case event := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("write error: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins for local dev
	},
}

func wsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		hub.register <- conn

		go func() {
			defer func() {
				hub.unregister <- conn
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}

func consumeSegments(ctx context.Context, hub *Hub, brokers, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   strings.Split(brokers, ","),
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	reader.SetOffsetAt(ctx, time.Now().Add(-1*time.Hour))
	log.Printf("consuming topic %s partition 0 (last hour)", topic)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("kafka read error on %s: %v", topic, err)
				time.Sleep(time.Second)
				continue
			}

			var preview struct {
				Text     string  `json:"text"`
				StartSec float64 `json:"startSec"`
				EndSec   float64 `json:"endSec"`
			}
			if err := json.Unmarshal(msg.Value, &preview); err != nil {
				log.Printf("json unmarshal error: %v", err)
				continue
			}

			log.Printf("received from %s [%.2f-%.2f]: %s", topic, preview.StartSec, preview.EndSec, truncate(preview.Text, 40))
			hub.broadcast <- json.RawMessage(msg.Value)
		}
	}
}

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicSegment := flag.String("topic-segment", "caption.segment", "Segment topic")
	topicTranscript := flag.String("topic-transcript", "caption.transcript.interim", "Interim transcript topic")
	flag.Parse()

	hub := newHub()
	go hub.run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumeSegments(ctx, hub, *brokers, *topicSegment)
	go consumeSegments(ctx, hub, *brokers, *topicTranscript)

	staticFS, _ := fs.Sub(staticFiles, "static")
	http.Handle("/", http.FileServer(http.FS(staticFS)))
	http.HandleFunc("/ws", wsHandler(hub))

	log.Printf("caption viewer starting on http://localhost:%s", *port)
	log.Printf("kafka brokers: %s", *brokers)
	log.Printf("topics: %s, %s", *topicSegment, *topicTranscript)

	if err := http.ListenAndServe(":"+*port, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
