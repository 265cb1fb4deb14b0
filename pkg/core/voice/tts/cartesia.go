package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	cartesiaWSURL   = "wss://api.cartesia.ai/tts/websocket"
	cartesiaVersion = "2025-04-16"

	defaultModelID    = "sonic-turbo"
	defaultSampleRate = 24000
	defaultLanguage   = "en"
)

// DefaultVoiceID is used when a profile does not pin a voice.
const DefaultVoiceID = "9626c31c-bec5-4cca-baa8-f8ba9e84c8bc"

// CartesiaDialer opens duplex synthesis sessions against Cartesia's
// websocket API.
type CartesiaDialer struct {
	apiKey  string
	baseURL string
	dialer  *websocket.Dialer
}

// NewCartesia creates a new Cartesia TTS dialer.
func NewCartesia(apiKey string) *CartesiaDialer {
	return &CartesiaDialer{
		apiKey:  apiKey,
		baseURL: cartesiaWSURL,
		dialer:  websocket.DefaultDialer,
	}
}

// NewCartesiaWithEndpoint creates a dialer against a custom websocket URL.
func NewCartesiaWithEndpoint(apiKey, wsURL string) *CartesiaDialer {
	d := NewCartesia(apiKey)
	if wsURL != "" {
		d.baseURL = wsURL
	}
	return d
}

// Name returns the provider identifier.
func (d *CartesiaDialer) Name() string {
	return "cartesia"
}

// OpenSession connects the websocket and starts the inbound read loop. The
// returned session carries one context id for its whole lifetime.
func (d *CartesiaDialer) OpenSession(ctx context.Context, opts SessionOptions) (Session, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("cartesia api key is not configured")
	}

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", d.apiKey)
	q.Set("cartesia_version", cartesiaVersion)
	u.RawQuery = q.Encode()

	conn, _, err := d.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	s := &cartesiaSession{
		conn:      conn,
		contextID: uuid.NewString(),
		opts:      opts,
		chunks:    make(chan []byte, 100),
		done:      make(chan struct{}),
		closed:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

type cartesiaSession struct {
	conn      *websocket.Conn
	contextID string
	opts      SessionOptions

	writeMu sync.Mutex
	chunks  chan []byte
	done    chan struct{} // service signalled synthesis drained

	closeOnce sync.Once
	closed    chan struct{}

	errMu sync.Mutex
	err   error
}

type cartesiaSegmentRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceSpec    `json:"voice"`
	Language     string               `json:"language"`
	ContextID    string               `json:"context_id"`
	Continue     bool                 `json:"continue"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
}

type cartesiaVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaResponse struct {
	Type  string `json:"type"` // "chunk", "done", "error"
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *cartesiaSession) Send(text string, cont bool) error {
	if text == "" && cont {
		return nil
	}
	select {
	case <-s.closed:
		return fmt.Errorf("session is closed")
	default:
	}

	voice := s.opts.Voice
	if voice == "" {
		voice = DefaultVoiceID
	}
	model := s.opts.Model
	if model == "" {
		model = defaultModelID
	}
	language := s.opts.Language
	if language == "" {
		language = defaultLanguage
	}
	sampleRate := s.opts.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}

	req := cartesiaSegmentRequest{
		ModelID:    model,
		Transcript: text,
		Voice:      cartesiaVoiceSpec{Mode: "id", ID: voice},
		Language:   language,
		ContextID:  s.contextID,
		Continue:   cont,
		OutputFormat: cartesiaOutputFormat{
			Container:  "raw",
			Encoding:   "pcm_f32le",
			SampleRate: sampleRate,
		},
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send segment: %w", err)
	}
	return nil
}

func (s *cartesiaSession) Chunks() <-chan []byte {
	return s.chunks
}

func (s *cartesiaSession) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-s.closed:
	case <-ctx.Done():
		_ = s.Close()
		return ctx.Err()
	}
	_ = s.Close()
	return s.Err()
}

func (s *cartesiaSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
	return nil
}

// Err returns the first inbound error observed, if any.
func (s *cartesiaSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *cartesiaSession) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *cartesiaSession) readLoop() {
	defer close(s.chunks)

	for {
		var msg cartesiaResponse
		if err := s.conn.ReadJSON(&msg); err != nil {
			// The connection closing, normally or not, ends synthesis.
			select {
			case <-s.closed:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					s.setErr(err)
				}
			}
			s.signalDone()
			return
		}

		switch msg.Type {
		case "chunk":
			audio, err := base64.StdEncoding.DecodeString(msg.Data)
			if err != nil {
				s.setErr(fmt.Errorf("decode audio: %w", err))
				s.signalDone()
				return
			}
			select {
			case s.chunks <- audio:
			case <-s.closed:
				s.signalDone()
				return
			}
		case "done":
			s.signalDone()
			return
		case "error":
			s.setErr(fmt.Errorf("cartesia error: %s", msg.Error))
			s.signalDone()
			return
		}
	}
}

func (s *cartesiaSession) signalDone() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
