package logship_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/bft-labs/logship/pkg/logship"
)

// ExampleNew ships two records to a local intake over plain HTTP.
func ExampleNew() {
	intake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fmt.Printf("%s %s\n", r.URL.Path, body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer intake.Close()

	host, port, _ := net.SplitHostPort(strings.TrimPrefix(intake.URL, "http://"))

	cfg := logship.DefaultConfig()
	cfg.APIKey = "your-api-key"
	cfg.Host = host
	cfg.Port, _ = strconv.Atoi(port)
	cfg.UseSSL = false
	cfg.UseCompression = false

	s, err := logship.New(cfg)
	if err != nil {
		fmt.Printf("failed to create shipper: %v\n", err)
		return
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	_ = s.Ship(ctx, []byte(`{"message":"hello"}`), []byte(`{"message":"world"}`))
	_ = s.Stop()

	fmt.Println(s.Status())

	// Output:
	// /api/v2/logs [{"message":"hello"},{"message":"world"}]
	// Stopped
}

// Example_withEventHandler demonstrates how to receive shipping events.
func Example_withEventHandler() {
	cfg := logship.DefaultConfig()
	cfg.APIKey = "api-key"

	s, err := logship.New(cfg, logship.WithEventHandler(&myEventHandler{}))
	if err != nil {
		fmt.Printf("failed to create shipper: %v\n", err)
		return
	}

	_ = s // Use shipper instance...
}

// myEventHandler implements logship.EventHandler for event notifications.
type myEventHandler struct {
	logship.BaseEventHandler // Embed for no-op defaults
}

func (h *myEventHandler) OnStateChange(event logship.StateChangeEvent) {
	fmt.Printf("State changed: %s -> %s (reason: %s)\n",
		event.Previous, event.Current, event.Reason)
}

func (h *myEventHandler) OnDropped(event logship.DroppedEvent) {
	fmt.Printf("Dropped payload %s (%d records): %s\n",
		event.PayloadID, event.Records, event.Reason)
}

// ExampleFileSource follows a log file and ships every new line.
func ExampleFileSource() {
	cfg := logship.DefaultConfig()
	cfg.APIKey = "api-key"
	cfg.Codec = "json"
	cfg.Service = "api"

	s, err := logship.New(cfg,
		logship.WithSource(logship.FileSource("/var/log/app.log", true, nil)),
	)
	if err != nil {
		fmt.Printf("failed to create shipper: %v\n", err)
		return
	}

	_ = s // Start() to begin following...
}
