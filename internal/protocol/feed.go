package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Source yields feed messages in order. Next returns io.EOF once the feed is
// exhausted.
type Source interface {
	Next(ctx context.Context) (Message, error)
}

// maxLineSize bounds a single feed line; large outputs arrive in one line
const maxLineSize = 16 * 1024 * 1024

// Decoder reads a JSON-lines feed. Lines that are not JSON objects are
// surfaced as diagnostic messages instead of failing the run, since adapters
// and the framework may write plain text to the same stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next implements Source
func (d *Decoder) Next(ctx context.Context) (Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return Message{}, fmt.Errorf("reading feed line %d: %w", d.line+1, err)
			}
			return Message{}, io.EOF
		}
		d.line++

		line := strings.TrimSpace(d.scanner.Text())
		if line == "" {
			continue
		}
		msg, err := Decode(line)
		if err != nil {
			return Message{}, fmt.Errorf("feed line %d: %w", d.line, err)
		}
		return msg, nil
	}
}

// Decode parses one feed line
func Decode(line string) (Message, error) {
	if !gjson.Valid(line) || !gjson.Parse(line).IsObject() {
		return Message{Kind: KindDiagnostic, Output: line}, nil
	}

	kind := gjson.Get(line, "kind")
	if !kind.Exists() || kind.String() == "" {
		return Message{Kind: KindDiagnostic, Output: line}, nil
	}
	if !Kind(kind.String()).Known() {
		// Newer adapters may send kinds we do not handle yet
		return Message{Kind: Kind(kind.String())}, nil
	}

	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return Message{}, fmt.Errorf("decoding %s message: %w", kind.String(), err)
	}
	return msg, nil
}

// Encoder writes messages as JSON lines. It is safe for concurrent use.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEncoder creates an encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

// Encode writes msg followed by a newline
func (e *Encoder) Encode(msg Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(msg); err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Kind, err)
	}
	return nil
}

// Recorder wraps a Source and writes every message it yields to an Encoder
type Recorder struct {
	Source  Source
	Encoder *Encoder
}

// Next implements Source
func (r *Recorder) Next(ctx context.Context) (Message, error) {
	msg, err := r.Source.Next(ctx)
	if err != nil {
		return msg, err
	}
	if err := r.Encoder.Encode(msg); err != nil {
		return msg, err
	}
	return msg, nil
}

// Slice is an in-memory Source
type Slice struct {
	Messages []Message
	next     int
}

// Next implements Source
func (s *Slice) Next(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if s.next >= len(s.Messages) {
		return Message{}, io.EOF
	}
	msg := s.Messages[s.next]
	s.next++
	return msg, nil
}
