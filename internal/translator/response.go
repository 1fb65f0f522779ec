package translator

import (
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Delimiters wrapping merged reasoning content. The stream path emits the
// same markers incrementally.
const (
	thinkOpenMarker  = "<think>\n"
	thinkCloseMarker = "</think>\n\n"
)

// TranslateNonStream converts a buffered upstream chat completion response
// into the outbound response shape. inboundModel is the identifier the caller
// sent; it is echoed back so the translation stays transparent to the client.
// When the upstream omits usage statistics a zeroed usage record is emitted
// instead.
func TranslateNonStream(upstreamBody []byte, inboundModel string, now int64, reasoningDisplay bool) []byte {
	root := gjson.ParseBytes(upstreamBody)

	out := `{"id":"","object":"chat.completion","created":0,"model":"","choices":[],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`

	if id := root.Get("id"); id.Exists() && id.String() != "" {
		out, _ = sjson.Set(out, "id", id.String())
	} else {
		out, _ = sjson.Set(out, "id", "chatcmpl-"+uuid.NewString())
	}

	if created := root.Get("created"); created.Exists() {
		out, _ = sjson.Set(out, "created", created.Int())
	} else {
		out, _ = sjson.Set(out, "created", now)
	}

	out, _ = sjson.Set(out, "model", inboundModel)

	root.Get("choices").ForEach(func(_, choice gjson.Result) bool {
		item := `{"index":0,"message":{"role":"assistant","content":""},"finish_reason":null}`
		item, _ = sjson.Set(item, "index", choice.Get("index").Int())

		if role := choice.Get("message.role"); role.Exists() && role.String() != "" {
			item, _ = sjson.Set(item, "message.role", role.String())
		}

		content := choice.Get("message.content").String()
		reasoning := choice.Get("message.reasoning_content")
		if reasoningDisplay && reasoning.Exists() && reasoning.String() != "" {
			content = thinkOpenMarker + reasoning.String() + thinkCloseMarker + content
		}
		item, _ = sjson.Set(item, "message.content", content)

		if finishReason := choice.Get("finish_reason"); finishReason.Exists() && finishReason.Type != gjson.Null {
			item, _ = sjson.Set(item, "finish_reason", finishReason.String())
		}

		out, _ = sjson.SetRaw(out, "choices.-1", item)
		return true
	})

	if usage := root.Get("usage"); usage.Exists() && usage.IsObject() {
		out, _ = sjson.SetRaw(out, "usage", usage.Raw)
	}

	return []byte(out)
}
