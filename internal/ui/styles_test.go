package ui

import (
	"strings"
	"testing"
)

func TestRenderPreservesText(t *testing.T) {
	for _, fn := range []func(string) string{RenderAccent, RenderPass, RenderWarn, RenderFail, RenderMuted} {
		got := fn("pending: 3")
		if !strings.Contains(got, "pending: 3") {
			t.Errorf("rendered output %q lost its text", got)
		}
	}
}

func TestRenderDisabledPassesThrough(t *testing.T) {
	old := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = old }()

	if got := RenderAccent("plain"); got != "plain" {
		t.Errorf("RenderAccent with color disabled = %q, want plain", got)
	}
}
