package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/pscheid92/snakepipe/internal/domain"
	"github.com/pscheid92/snakepipe/internal/metrics"
)

// maxLineSize bounds a single input line. Longer lines are discarded up to
// their newline and counted as dropped frames.
const maxLineSize = 1 << 20

// Stream is a single-pass, forward-only sequence of frames. It is not safe
// for concurrent use; one producer owns it.
type Stream struct {
	config domain.Config
	reader *bufio.Reader
	line   []byte
	err    error
	done   bool
}

// Decode reads the Config line from r and returns a Stream over the
// remaining lines. Nothing past the first line is read until Next is called.
func Decode(r io.Reader) (*Stream, error) {
	s := &Stream{reader: bufio.NewReaderSize(r, 64*1024)}

	line, tooLong, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.ProtocolError{Kind: domain.ErrMissingConfig}
		}
		return nil, &domain.ProtocolError{Kind: domain.ErrMissingConfig, Cause: err}
	}
	if tooLong {
		return nil, &domain.ProtocolError{Kind: domain.ErrMalformedConfig, Cause: errLineTooLong}
	}

	if err := json.Unmarshal(line, &s.config); err != nil {
		return nil, &domain.ProtocolError{Kind: domain.ErrMalformedConfig, Cause: err}
	}

	return s, nil
}

var errLineTooLong = fmt.Errorf("line exceeds %d bytes", maxLineSize)

// readLine returns the next line without its terminator. A line longer than
// maxLineSize is consumed in full and reported with tooLong set. The final
// line may lack a newline. io.EOF is returned only when no bytes remain.
func (s *Stream) readLine() (line []byte, tooLong bool, err error) {
	s.line = s.line[:0]
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if !tooLong {
			if len(s.line)+len(chunk) > maxLineSize+1 {
				tooLong = true
				s.line = s.line[:0]
			} else {
				s.line = append(s.line, chunk...)
			}
		}

		switch {
		case err == nil:
			return bytes.TrimSuffix(s.line, []byte("\n")), tooLong, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(s.line) > 0 || tooLong {
				return s.line, tooLong, nil
			}
			return nil, false, io.EOF
		default:
			return nil, false, err
		}
	}
}

func (s *Stream) Config() domain.Config {
	return s.config
}

// Next returns the next frame that parses. It returns false once the
// underlying reader is exhausted or failed; see Err.
func (s *Stream) Next() (domain.Frame, bool) {
	for !s.done {
		raw, tooLong, err := s.readLine()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			break
		}

		if tooLong {
			metrics.FramesDroppedTotal.Inc()
			slog.Debug("Dropping oversized frame line", "max_bytes", maxLineSize)
			continue
		}

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}

		frame, err := ParseFrame(line)
		if err != nil {
			metrics.FramesDroppedTotal.Inc()
			slog.Debug("Dropping malformed frame", "error", err, "line_bytes", len(line))
			continue
		}

		metrics.FramesDecodedTotal.Inc()
		return frame, true
	}
	return domain.Frame{}, false
}

// All adapts Next to a range-over-func sequence.
func (s *Stream) All() iter.Seq[domain.Frame] {
	return func(yield func(domain.Frame) bool) {
		for {
			frame, ok := s.Next()
			if !ok || !yield(frame) {
				return
			}
		}
	}
}

// Err returns the read error that ended the sequence. Reaching the end of
// the input is not an error.
func (s *Stream) Err() error {
	if s.err != nil {
		return fmt.Errorf("failed to read frame: %w", s.err)
	}
	return nil
}

// ParseFrame decodes one frame line. Every member of the frame must be
// present and non-null.
func ParseFrame(line []byte) (domain.Frame, error) {
	var frame domain.Frame
	if err := json.Unmarshal(line, &frame); err != nil {
		return domain.Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	return frame, nil
}
