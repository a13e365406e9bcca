// relayd is the relay service: it holds captured request signatures
// until the bot process consumes them. Runs standalone so the
// intercepting proxy and the bot can restart independently.
package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"xhsfeed/pkg/relay"
)

func main() {
	port := 8000
	if v := os.Getenv("RELAY_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid RELAY_PORT %q: %v", v, err)
		}
		port = n
	}

	var ttl time.Duration
	if v := os.Getenv("RELAY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid RELAY_TTL %q: %v", v, err)
		}
		ttl = d
	}

	store := relay.NewStore(ttl)
	if ttl > 0 {
		store.StartJanitor(ttl)
		defer store.Close()
	}

	server := relay.NewServer(store)
	log.Printf("Relay listening on 127.0.0.1:%d", port)
	if err := server.ListenAndServe(port); err != nil {
		log.Fatalf("Relay server stopped: %v", err)
	}
}
