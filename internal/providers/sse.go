package providers

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// SSEReader reads the data payloads of a Server-Sent Events stream, as sent
// by OpenAI-compatible servers for streamed chat completions.
type SSEReader struct {
	reader *bufio.Reader
}

func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// Next returns the joined data lines of the next event, or io.EOF when the
// stream ends. Comments and non-data fields are skipped.
func (s *SSEReader) Next() ([]byte, error) {
	var dataLines [][]byte
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := errors.Is(err, io.EOF)

		line = bytes.TrimRight(line, "\r\n")
		switch {
		case len(line) == 0:
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
		case bytes.HasPrefix(line, []byte("data:")):
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}

		if eof {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			return nil, io.EOF
		}
	}
}

// IsDone reports the OpenAI end-of-stream sentinel.
func IsDone(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "[DONE]"
}
