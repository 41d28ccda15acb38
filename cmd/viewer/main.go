package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/ddnowicki/live-captioning/config"
	"github.com/ddnowicki/live-captioning/types"
	"github.com/ddnowicki/live-captioning/viewer"
)

// terminalRenderer prints the visible caption lines plus the transient
// interim transcript, redrawing the block on every update.
type terminalRenderer struct {
	mu      sync.Mutex
	lines   []types.Line
	interim string
}

func (r *terminalRenderer) RenderLines(lines []types.Line) {
	r.mu.Lock()
	r.lines = lines
	r.draw()
	r.mu.Unlock()
}

func (r *terminalRenderer) RenderInterim(text string) {
	r.mu.Lock()
	r.interim = text
	r.draw()
	r.mu.Unlock()
}

func (r *terminalRenderer) draw() {
	var b strings.Builder
	b.WriteString("\033[2J\033[H") // clear screen, home cursor
	for _, line := range r.lines {
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	if r.interim != "" {
		fmt.Fprintf(&b, "… %s\n", r.interim)
	}
	os.Stdout.WriteString(b.String())
}

func main() {
	cfg := config.Load()

	v, err := viewer.New(cfg.HubURL, &terminalRenderer{})
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("connecting to hub at %s", cfg.HubURL)
	if err := v.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
