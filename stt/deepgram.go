package stt

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	gws "github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/ddnowicki/live-captioning/types"
)

const liveEndpoint = "wss://api.deepgram.com/v1/listen?" +
	"model=nova-3&language=en-GB&punctuate=true&smart_format=true&" +
	"interim_results=true&endpointing=1500&utterance_end_ms=5000&" +
	"vad_events=true&encoding=linear16&sample_rate=16000&channels=1&" +
	"filler_words=true&numerals=true"

type liveResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Client streams microphone PCM to the Deepgram live endpoint and
// emits recognized fragments through OnFragment. Connection lifecycle
// (reconnects, backoff) is handled by the caller through Dial, OnClose
// and OnReady; the client only owns the read loop of one socket.
type Client struct {
	mu     sync.Mutex
	conn   *gws.Conn
	apiKey string

	// OnFragment receives every non-empty recognized fragment plus a
	// synthetic fragment with UtteranceEnd set on utterance boundaries.
	OnFragment func(types.Fragment)
	// OnReady fires once per connection, when the first frame arrives
	// from Deepgram.
	OnReady func()
	// OnClose fires when the read loop exits.
	OnClose func()
}

// NewClient creates a Client for the given API key.
func NewClient(apiKey string, onFragment func(types.Fragment)) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}
	if onFragment == nil {
		return nil, fmt.Errorf("fragment callback is required")
	}
	return &Client{apiKey: apiKey, OnFragment: onFragment}, nil
}

// Dial opens the live socket and starts the read loop. It satisfies
// the dial signature of the connection lifecycle manager; the returned
// closer tears down the socket.
func (c *Client) Dial() (io.Closer, error) {
	header := http.Header{
		"Authorization": {fmt.Sprintf("Token %s", c.apiKey)},
	}
	conn, _, err := gws.DefaultDialer.Dial(liveEndpoint, header)
	if err != nil {
		return nil, errors.Wrap(err, "deepgram dial")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return conn, nil
}

// SendAudio forwards one raw PCM frame to the recognizer.
func (c *Client) SendAudio(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("recognizer is not connected")
	}
	if err := conn.WriteMessage(gws.BinaryMessage, pcm); err != nil {
		return errors.Wrap(err, "deepgram write")
	}
	return nil
}

func (c *Client) readLoop(conn *gws.Conn) {
	ready := false
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		if c.OnClose != nil {
			c.OnClose()
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !ready {
			ready = true
			if c.OnReady != nil {
				c.OnReady()
			}
		}

		var resp liveResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			continue
		}

		switch resp.Type {
		case "UtteranceEnd":
			c.OnFragment(types.Fragment{UtteranceEnd: true})
		case "Results":
			if len(resp.Channel.Alternatives) == 0 {
				continue
			}
			text := resp.Channel.Alternatives[0].Transcript
			if text == "" {
				continue
			}
			c.OnFragment(types.Fragment{Text: text, IsFinal: resp.IsFinal})
			if resp.SpeechFinal {
				c.OnFragment(types.Fragment{UtteranceEnd: true})
			}
		}
	}
}
