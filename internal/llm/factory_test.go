package llm

import "testing"

func TestNewCompleterModes(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cases := []struct {
		name     string
		opts     Options
		provider string
		wantErr  bool
	}{
		{"explicit mock", Options{Provider: "mock"}, "mock", false},
		{"explicit openrouter", Options{Provider: "openrouter", OpenRouterAPIKey: "k"}, "openrouter", false},
		{"openrouter without key", Options{Provider: "openrouter"}, "", true},
		{"auto with openrouter key", Options{Provider: "auto", OpenRouterAPIKey: "k"}, "openrouter", false},
		{"auto without keys", Options{Provider: "auto"}, "mock", false},
		{"empty is auto", Options{}, "mock", false},
		{"unknown", Options{Provider: "cohere"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, provider, err := NewCompleter(tc.opts)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NewCompleter() accepted %+v", tc.opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCompleter() error = %v", err)
			}
			if provider != tc.provider {
				t.Fatalf("provider = %q, want %q", provider, tc.provider)
			}
			if c == nil {
				t.Fatalf("nil completer")
			}
		})
	}
}

func TestAutoPrefersAnthropicWhenKeyPresent(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "k")

	_, provider, err := NewCompleter(Options{Provider: "auto"})
	if err != nil {
		t.Fatalf("NewCompleter() error = %v", err)
	}
	if provider != "anthropic" {
		t.Fatalf("provider = %q, want anthropic", provider)
	}
}
