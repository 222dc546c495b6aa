// Package nativehost speaks the browser native-messaging protocol: every
// message is a 4-byte native-endian length followed by that many bytes of
// UTF-8 JSON.
package nativehost

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/runger/selact/internal/provider"
)

// MaxMessageSize bounds a single inbound message (1 MiB).
const MaxMessageSize = 1 << 20

// ErrMessageTooLarge is returned for a message over MaxMessageSize. The
// payload has been consumed, so the stream is still aligned on the next
// message.
var ErrMessageTooLarge = errors.New("native message too large")

// Transport reads and writes framed messages. Writes are serialized so
// replies and pushed notifications never interleave.
type Transport struct {
	reader *bufio.Reader
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger // set by NewServer
}

// NewTransport creates a transport reading from r and writing to w.
func NewTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		w:      w,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Receive reads one message. It returns io.EOF when the browser closes
// the pipe between messages.
func (t *Transport) Receive() ([]byte, error) {
	return readMessage(t.reader, MaxMessageSize)
}

// Send encodes v as JSON and writes it as one message.
func (t *Transport) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return writeMessage(t.w, data)
}

// Expand pushes an expand notification asking the extension to switch from
// the bubble to the panel. It matches dispatch.ExpandFunc.
func (t *Transport) Expand(p provider.Provider) {
	err := t.Send(Response{Type: TypeExpand, OK: true, Data: map[string]int64{"providerId": p.ProviderID}})
	if err != nil {
		t.logger.Warn("failed to push expand", "provider_id", p.ProviderID, "error", err)
	}
}

func writeMessage(w io.Writer, content []byte) error {
	var header [4]byte
	binary.NativeEndian.PutUint32(header[:], uint32(len(content)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

func readMessage(r io.Reader, limit int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, err
	}

	length := int64(binary.NativeEndian.Uint32(header[:]))
	if length > int64(limit) {
		if _, err := io.CopyN(io.Discard, r, length); err != nil {
			return nil, fmt.Errorf("drain oversized message: %w", err)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, length)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read content: %w", err)
	}
	return content, nil
}
