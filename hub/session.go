package hub

import (
	"context"
	"encoding/base64"
	"log"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ddnowicki/live-captioning/cache"
	"github.com/ddnowicki/live-captioning/chunker"
	"github.com/ddnowicki/live-captioning/config"
	"github.com/ddnowicki/live-captioning/conn"
	"github.com/ddnowicki/live-captioning/pacer"
	"github.com/ddnowicki/live-captioning/splitter"
	"github.com/ddnowicki/live-captioning/stt"
	"github.com/ddnowicki/live-captioning/translate"
	"github.com/ddnowicki/live-captioning/types"
)

// Session is the single processing session shared by all viewers. It
// owns the recognizer connection, the chunk accumulator, and the
// translation pipeline, and publishes everything through the hub. It
// is created once by the hub binary and injected into handlers rather
// than read from package state.
type Session struct {
	hub         *Hub
	accumulator *chunker.Accumulator
	translator  *translate.Translator
	recognizer  *stt.Client
	manager     *conn.Manager

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

// NewSession wires the full hub-side pipeline.
func NewSession(h *Hub, cfg *config.Config) (*Session, error) {
	if h == nil {
		return nil, errors.New("hub is required")
	}
	if err := cfg.ValidateHub(); err != nil {
		return nil, err
	}

	memo, err := cache.New(cache.DefaultCapacity)
	if err != nil {
		return nil, err
	}
	translator, err := translate.New(cfg.OpenAIAPIKey, cfg.TranslateModel, memo)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	s := &Session{
		hub:        h,
		translator: translator,
		ctx:        ctx,
		cancel:     cancel,
		g:          g,
	}

	s.accumulator, err = chunker.New(chunker.DefaultCeiling, s.onChunk)
	if err != nil {
		cancel()
		return nil, err
	}
	s.recognizer, err = stt.NewClient(cfg.DeepgramAPIKey, s.onFragment)
	if err != nil {
		cancel()
		return nil, err
	}
	s.manager, err = conn.NewManager(s.recognizer.Dial, s.onConnState)
	if err != nil {
		cancel()
		return nil, err
	}
	s.recognizer.OnReady = s.onRecognizerReady
	s.recognizer.OnClose = s.manager.ConnectionClosed
	return s, nil
}

// Start connects the recognizer if it is not already live. Safe to
// call from every viewer that sends a start request.
func (s *Session) Start() error {
	switch s.manager.State() {
	case conn.Connected, conn.Ready:
		return nil
	case conn.Errored:
		// manual intervention resumes a dead session
		fallthrough
	default:
		return errors.Wrap(s.manager.Connect(), "recognizer connect")
	}
}

// Stop flushes the pending chunk and tells viewers the session ended.
// The recognizer connection stays up so a later start is instant.
func (s *Session) Stop() {
	s.accumulator.ForceFlush()
	s.hub.Broadcast(types.Message{Type: types.TypeStopped})
}

// Shutdown tears the session down for process exit.
func (s *Session) Shutdown() {
	s.cancel()
	s.manager.Shutdown()
	if err := s.g.Wait(); err != nil {
		log.Printf("session drain: %v", err)
	}
}

// Ready reports whether the recognizer session is warmed up.
func (s *Session) Ready() bool {
	return s.manager.State() == conn.Ready
}

// ForwardAudio decodes a viewer's base64 PCM payload and hands it to
// the recognizer.
func (s *Session) ForwardAudio(payload string) error {
	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return errors.Wrap(err, "audio payload decode")
	}
	return s.recognizer.SendAudio(pcm)
}

// onFragment handles recognizer events in arrival order. Interim text
// bypasses chunking and is shown transiently; final text feeds the
// accumulator; an utterance boundary forces a flush.
func (s *Session) onFragment(f types.Fragment) {
	switch {
	case f.UtteranceEnd:
		s.accumulator.ForceFlush()
	case f.IsFinal:
		// clear the transient line, the final version is on its way
		s.hub.Broadcast(types.Message{Type: types.TypeInterimTranscript})
		s.accumulator.OnFragment(f.Text)
	default:
		s.hub.Broadcast(types.Message{Type: types.TypeInterimTranscript, Transcript: f.Text})
	}
}

// onChunk translates a flushed chunk and fans the split lines out.
// A failed translation drops the chunk; one bad chunk never blocks the
// pipeline.
func (s *Session) onChunk(text string) {
	s.g.Go(func() error {
		translated, err := s.translator.Translate(s.ctx, text)
		if err != nil {
			log.Printf("translation failed, dropping chunk: %v", err)
			s.hub.Broadcast(types.Message{Type: types.TypeError, Message: "translation failed"})
			return nil
		}
		lines := splitter.Coalesce(splitter.Split(translated))
		for _, line := range lines {
			s.hub.Broadcast(types.Message{
				Type:        types.TypePolishSentence,
				Sentence:    line,
				DisplayTime: pacer.Hold(line, 0).Milliseconds(),
			})
		}
		return nil
	})
}

func (s *Session) onRecognizerReady() {
	s.manager.MarkReady()
	s.hub.Broadcast(types.Message{Type: types.TypeReady})
}

func (s *Session) onConnState(state conn.State) {
	log.Printf("recognizer connection: %s", state)
}
