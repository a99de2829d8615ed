package wweb_test

import (
	"testing"

	"zapnode/pkg/wweb"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"244929782402", "244929782402@c.us"},
		{"+244 929 782 402", "244929782402@c.us"},
		{"(244) 929-782402", "244929782402@c.us"},
	}

	for _, tt := range tests {
		if got := wweb.FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChatIDClassification(t *testing.T) {
	if !wweb.IsPrivateChat("123@c.us") {
		t.Error("expected 123@c.us to be private")
	}
	if !wweb.IsGroupChat("123-456@g.us") {
		t.Error("expected 123-456@g.us to be a group")
	}
	if !wweb.IsStatusBroadcast("status@broadcast") {
		t.Error("expected status@broadcast to be a status feed")
	}
	if !wweb.IsNewsletter("123@newsletter") {
		t.Error("expected 123@newsletter to be a newsletter")
	}
	if wweb.IsPrivateChat("123@g.us") || wweb.IsGroupChat("123@c.us") {
		t.Error("suffix classification overlaps")
	}
}
