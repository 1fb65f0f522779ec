package translator

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// StreamSession reassembles an upstream SSE byte stream into discrete events
// and rewrites each event for the outbound stream. Chunk boundaries carry no
// semantic meaning: the session buffers raw bytes and only processes a line
// once its terminating newline has arrived, so concatenating the output is
// invariant to how the upstream happened to chunk the bytes.
//
// A session is owned by a single request goroutine and must not be shared.
type StreamSession struct {
	reasoningDisplay bool
	buffer           string

	// reasoningOpen is latched while a <think> block is open on the outbound
	// stream. Only meaningful when reasoningDisplay is set.
	reasoningOpen bool
}

// NewStreamSession creates a session for one streaming response.
func NewStreamSession(reasoningDisplay bool) *StreamSession {
	return &StreamSession{reasoningDisplay: reasoningDisplay}
}

// Feed appends a raw upstream chunk to the session buffer and returns the
// fully framed outbound events produced by every line the chunk completed.
// The trailing fragment after the last newline stays buffered for the next
// chunk.
func (s *StreamSession) Feed(chunk []byte) []string {
	s.buffer += string(chunk)

	parts := strings.Split(s.buffer, "\n")
	s.buffer = parts[len(parts)-1]

	var events []string
	for _, line := range parts[:len(parts)-1] {
		line = strings.TrimSuffix(line, "\r")
		if event, ok := s.processLine(line); ok {
			events = append(events, event)
		}
	}
	return events
}

// processLine handles one complete line from the upstream stream. Lines
// without the SSE data prefix are protocol framing noise and are dropped.
// The end-of-stream sentinel is forwarded verbatim. Payloads that fail to
// parse as JSON pass through unchanged rather than aborting the stream.
func (s *StreamSession) processLine(line string) (string, bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}

	payload := line[len(dataPrefix):]
	if payload == doneSentinel {
		return line + "\n\n", true
	}

	if !gjson.Valid(payload) {
		return line + "\n\n", true
	}

	return dataPrefix + s.transformEvent(payload) + "\n\n", true
}

// transformEvent rewrites the first choice's delta. The reasoning channel is
// either merged into the content channel between <think> markers or dropped,
// and the reasoning_content key never reaches the outbound delta.
func (s *StreamSession) transformEvent(payload string) string {
	reasoning := gjson.Get(payload, "choices.0.delta.reasoning_content")
	content := gjson.Get(payload, "choices.0.delta.content")

	if s.reasoningDisplay {
		var out strings.Builder
		if reasoning.Exists() && reasoning.String() != "" {
			if !s.reasoningOpen {
				out.WriteString(thinkOpenMarker)
				s.reasoningOpen = true
			}
			out.WriteString(reasoning.String())
		}
		if content.Exists() && content.String() != "" {
			if s.reasoningOpen {
				out.WriteString(thinkCloseMarker)
				s.reasoningOpen = false
			}
			out.WriteString(content.String())
		}
		if reasoning.Exists() || content.Exists() {
			payload, _ = sjson.Set(payload, "choices.0.delta.content", out.String())
		}
	} else if reasoning.Exists() || content.Exists() {
		payload, _ = sjson.Set(payload, "choices.0.delta.content", content.String())
	}

	payload, _ = sjson.Delete(payload, "choices.0.delta.reasoning_content")
	return payload
}
