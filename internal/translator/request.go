// Package translator converts between the inbound OpenAI-compatible chat
// completion schema and the upstream's schema, in both directions. All
// transforms operate on raw JSON bytes with gjson/sjson so that fields the
// gateway does not understand pass through untouched, and so that absent
// parameters can be told apart from parameters explicitly set to zero.
package translator

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// detailedSystemPrompt is prepended when prompt augmentation is enabled and
// the request carries no system message.
const detailedSystemPrompt = "You are a helpful assistant. Always provide thorough, well-structured answers: explain your reasoning step by step, cover relevant edge cases, and include concrete examples where they help."

// elaborationSuffix is appended to an existing system message when prompt
// augmentation is enabled.
const elaborationSuffix = "\n\nAlways respond with detailed, well-structured answers."

// Generation parameter defaults, applied only when the inbound request omits
// the parameter entirely. An explicit zero is preserved.
var parameterDefaults = []struct {
	key   string
	value float64
}{
	{"temperature", 0.7},
	{"max_tokens", 4096},
	{"top_p", 0.9},
	{"presence_penalty", 0},
	{"frequency_penalty", 0},
}

// RequestOptions carries the per-request inputs of the request adapter.
type RequestOptions struct {
	// UpstreamModel is the already-resolved upstream model identifier.
	UpstreamModel string

	// DetailedPrompts enables system prompt augmentation.
	DetailedPrompts bool

	// ThinkingMode attaches enable_thinking to the upstream payload. When
	// false the key is omitted entirely, never sent as false.
	ThinkingMode bool
}

// BuildUpstreamRequest produces the upstream-bound request body from the raw
// inbound body. The inbound bytes are never modified; every edit yields a new
// document. This function degrades rather than fails: any malformed piece of
// the inbound payload is forwarded as-is.
func BuildUpstreamRequest(rawJSON []byte, opts RequestOptions) []byte {
	out := string(rawJSON)

	out, _ = sjson.Set(out, "model", opts.UpstreamModel)

	if opts.DetailedPrompts {
		out = augmentSystemPrompt(out)
	}

	for _, def := range parameterDefaults {
		if !gjson.Get(out, def.key).Exists() {
			out, _ = sjson.Set(out, def.key, def.value)
		}
	}

	if opts.ThinkingMode {
		out, _ = sjson.Set(out, "enable_thinking", true)
	}

	return []byte(out)
}

// augmentSystemPrompt prepends the detailed-answer system message when the
// request has no system message, or appends the elaboration suffix to the
// first system message's content otherwise. Message order is preserved.
func augmentSystemPrompt(doc string) string {
	messages := gjson.Get(doc, "messages")
	if !messages.IsArray() {
		return doc
	}

	systemIndex := -1
	messages.ForEach(func(index, message gjson.Result) bool {
		if message.Get("role").String() == "system" {
			systemIndex = int(index.Int())
			return false
		}
		return true
	})

	if systemIndex >= 0 {
		contentPath := fmt.Sprintf("messages.%d.content", systemIndex)
		content := gjson.Get(doc, contentPath).String()
		doc, _ = sjson.Set(doc, contentPath, content+elaborationSuffix)
		return doc
	}

	systemMessage, _ := sjson.Set(`{"role":"system","content":""}`, "content", detailedSystemPrompt)
	items := []string{systemMessage}
	messages.ForEach(func(_, message gjson.Result) bool {
		items = append(items, message.Raw)
		return true
	})
	doc, _ = sjson.SetRaw(doc, "messages", "["+strings.Join(items, ",")+"]")
	return doc
}
