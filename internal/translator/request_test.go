package translator

import (
	"bytes"
	"testing"

	"github.com/tidwall/gjson"
)

func TestBuildUpstreamRequest_SetsResolvedModel(t *testing.T) {
	raw := []byte(`{"model":"gpt-4","messages":[{"role":"user","content":"hi"}]}`)

	out := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "llama-3.1-405b-instruct"})

	if got := gjson.GetBytes(out, "model").String(); got != "llama-3.1-405b-instruct" {
		t.Errorf("model = %q, want resolved upstream model", got)
	}
}

func TestBuildUpstreamRequest_InjectsSystemPrompt(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[{"role":"user","content":"first"},{"role":"assistant","content":"second"}]}`)

	out := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m", DetailedPrompts: true})

	messages := gjson.GetBytes(out, "messages").Array()
	if len(messages) != 3 {
		t.Fatalf("message count = %d, want inbound length + 1", len(messages))
	}
	if role := messages[0].Get("role").String(); role != "system" {
		t.Errorf("messages[0].role = %q, want system", role)
	}
	if content := messages[0].Get("content").String(); content != detailedSystemPrompt {
		t.Errorf("messages[0].content = %q, want the fixed system prompt", content)
	}
	if got := messages[1].Get("content").String(); got != "first" {
		t.Errorf("messages[1].content = %q, order not preserved", got)
	}
	if got := messages[2].Get("content").String(); got != "second" {
		t.Errorf("messages[2].content = %q, order not preserved", got)
	}
}

func TestBuildUpstreamRequest_AppendsToExistingSystemPrompt(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[{"role":"user","content":"q"},{"role":"system","content":"be brief"}]}`)

	out := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m", DetailedPrompts: true})

	messages := gjson.GetBytes(out, "messages").Array()
	if len(messages) != 2 {
		t.Fatalf("message count = %d, no extra message may be inserted", len(messages))
	}
	if got := messages[1].Get("content").String(); got != "be brief"+elaborationSuffix {
		t.Errorf("system content = %q, want original + fixed suffix", got)
	}
}

func TestBuildUpstreamRequest_NoAugmentationWhenDisabled(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`)

	out := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m"})

	if n := len(gjson.GetBytes(out, "messages").Array()); n != 1 {
		t.Errorf("message count = %d, want unchanged", n)
	}
}

func TestBuildUpstreamRequest_AppliesDefaultsOnlyWhenAbsent(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[],"temperature":0}`)

	out := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m"})

	if got := gjson.GetBytes(out, "temperature").Float(); got != 0 {
		t.Errorf("temperature = %v, explicit 0 must survive defaulting", got)
	}
	if got := gjson.GetBytes(out, "max_tokens").Int(); got != 4096 {
		t.Errorf("max_tokens = %d, want default 4096", got)
	}
	if got := gjson.GetBytes(out, "top_p").Float(); got != 0.9 {
		t.Errorf("top_p = %v, want default 0.9", got)
	}
}

func TestBuildUpstreamRequest_ThinkingMode(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[]}`)

	on := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m", ThinkingMode: true})
	if got := gjson.GetBytes(on, "enable_thinking"); !got.Exists() || !got.Bool() {
		t.Errorf("enable_thinking = %v, want true when thinking mode is on", got)
	}

	off := BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "m"})
	if gjson.GetBytes(off, "enable_thinking").Exists() {
		t.Error("enable_thinking must be entirely omitted when thinking mode is off")
	}
}

func TestBuildUpstreamRequest_DoesNotMutateInput(t *testing.T) {
	raw := []byte(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`)
	original := make([]byte, len(raw))
	copy(original, raw)

	BuildUpstreamRequest(raw, RequestOptions{UpstreamModel: "other", DetailedPrompts: true, ThinkingMode: true})

	if !bytes.Equal(raw, original) {
		t.Error("inbound request bytes were mutated")
	}
}
