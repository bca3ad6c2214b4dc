package ai

import (
	"fmt"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFence(tc.in); got != tc.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClassifyProviderError(t *testing.T) {
	cases := []struct {
		msg  string
		want providerErrorClass
	}{
		{"429 Too Many Requests", errRateLimited},
		{"Rate limit reached for requests", errRateLimited},
		{"googleapi: quota exceeded", errRateLimited},
		{"context deadline exceeded", errUpstream},
		{"request timeout after 30s", errUpstream},
		{`error: {"code":503, "message":"overloaded"}`, errUpstream},
		{"500 Internal Server Error", errUpstream},
		{"invalid prompt: empty input", errCaller},
		{"400 Bad Request", errCaller},
	}
	for _, tc := range cases {
		if got := classifyProviderError(fmt.Errorf("%s", tc.msg)); got != tc.want {
			t.Errorf("classifyProviderError(%q) = %d, want %d", tc.msg, got, tc.want)
		}
	}
}

func TestModelConfigMerge(t *testing.T) {
	config := GetPresetConfig(PresetBalanced)
	config.merge(&ModelConfig{Temperature: 0.9, MaxOutputTokens: 512})

	if config.Temperature != 0.9 {
		t.Errorf("temperature = %v, want override 0.9", config.Temperature)
	}
	if config.MaxOutputTokens != 512 {
		t.Errorf("max tokens = %d, want override 512", config.MaxOutputTokens)
	}
	if config.TopK != 40 {
		t.Errorf("topK = %d, want preset value kept", config.TopK)
	}
}
