package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/ddnowicki/live-captioning/conn"
	"github.com/ddnowicki/live-captioning/pacer"
	"github.com/ddnowicki/live-captioning/types"
)

// Viewer is one receiving end of the hub: it keeps a lifecycle-managed
// websocket to the hub, feeds produced lines into its own display
// pacer, and renders interim text transiently. Each viewer paces
// independently of every other.
type Viewer struct {
	url     string
	manager *conn.Manager
	pacer   *pacer.Pacer
	render  Renderer

	mu   sync.Mutex
	sock *gws.Conn
}

// Renderer receives display updates.
type Renderer interface {
	RenderLines(lines []types.Line)
	RenderInterim(text string)
}

// New creates a Viewer for the hub at url.
func New(url string, render Renderer) (*Viewer, error) {
	if url == "" {
		return nil, fmt.Errorf("hub url is required")
	}
	if render == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	v := &Viewer{url: url, render: render}

	var err error
	v.pacer, err = pacer.New(render.RenderLines)
	if err != nil {
		return nil, err
	}
	v.manager, err = conn.NewManager(v.dial, func(s conn.State) {
		log.Printf("hub connection: %s", s)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Run connects and blocks until ctx is cancelled. Reconnection after
// closures is automatic up to the lifecycle manager's attempt ceiling.
func (v *Viewer) Run(ctx context.Context) error {
	v.pacer.Start()
	defer v.pacer.Stop()

	if err := v.manager.Connect(); err != nil {
		// the manager keeps retrying with backoff; a first failure is
		// not fatal
		log.Printf("initial connect: %v", err)
	}
	<-ctx.Done()
	v.manager.Shutdown()
	return nil
}

// Start asks the hub to begin a processing session.
func (v *Viewer) Start() error {
	return v.send(types.Message{Type: types.TypeStart})
}

// StopSession asks the hub to end the processing session.
func (v *Viewer) StopSession() error {
	return v.send(types.Message{Type: types.TypeStop})
}

// SendAudio forwards base64-encoded PCM to the hub.
func (v *Viewer) SendAudio(payload string) error {
	return v.send(types.Message{Type: types.TypeAudio, Audio: payload})
}

func (v *Viewer) send(message types.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sock == nil {
		return errors.New("not connected to hub")
	}
	return v.sock.WriteJSON(message)
}

// dial opens the hub socket and starts the read loop; it is the
// lifecycle manager's dial function.
func (v *Viewer) dial() (io.Closer, error) {
	sock, _, err := gws.DefaultDialer.Dial(v.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "hub dial")
	}
	v.mu.Lock()
	v.sock = sock
	v.mu.Unlock()
	go v.readLoop(sock)
	return sock, nil
}

func (v *Viewer) readLoop(sock *gws.Conn) {
	defer func() {
		v.mu.Lock()
		if v.sock == sock {
			v.sock = nil
		}
		v.mu.Unlock()
		v.manager.ConnectionClosed()
	}()

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}
		var message types.Message
		if err := json.Unmarshal(raw, &message); err != nil {
			log.Printf("malformed hub message: %v", err)
			continue
		}
		v.handle(message)
	}
}

func (v *Viewer) handle(message types.Message) {
	switch message.Type {
	case types.TypeReady:
		v.manager.MarkReady()
		log.Println("hub session ready")
	case types.TypeInterimTranscript:
		v.render.RenderInterim(message.Transcript)
	case types.TypePolishSentence:
		v.pacer.Enqueue(message.Sentence)
	case types.TypeStopped:
		// the session ended upstream; drop the backlog but let the last
		// visible lines linger through the grace delay. The hub socket
		// stays connected.
		v.pacer.Reset()
		v.render.RenderInterim("")
	case types.TypeError:
		log.Printf("hub error: %s", message.Message)
	default:
		log.Printf("unknown hub message type %q", message.Type)
	}
}
