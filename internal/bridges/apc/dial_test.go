package apc

import (
	"net/url"
	"strings"
	"testing"
)

func TestBuildDialURL(t *testing.T) {
	dialURL, _, err := buildDialURL(Config{
		URL:         "wss://relay.example.com/ws",
		Token:       "secret-token",
		Accessories: "APC",
	})
	if err != nil {
		t.Fatalf("buildDialURL: %v", err)
	}

	u, err := url.Parse(dialURL)
	if err != nil {
		t.Fatalf("dial URL does not parse: %v", err)
	}
	if got := u.Query().Get("token"); got != "secret-token" {
		t.Errorf("expected token query param, got %q", got)
	}
	if got := u.Query().Get("supportedAccessories"); got != "APC" {
		t.Errorf("expected supportedAccessories query param, got %q", got)
	}
}

// The loggable form must never carry the credential.
func TestBuildDialURL_RedactedStripsQuery(t *testing.T) {
	_, redacted, err := buildDialURL(Config{
		URL:         "wss://relay.example.com/ws?region=eu",
		Token:       "secret-token",
		Accessories: "APC",
	})
	if err != nil {
		t.Fatalf("buildDialURL: %v", err)
	}
	if strings.Contains(redacted, "secret-token") {
		t.Fatalf("redacted URL leaks the token: %s", redacted)
	}
	if strings.Contains(redacted, "?") {
		t.Errorf("redacted URL should have no query string: %s", redacted)
	}
	if redacted != "wss://relay.example.com/ws" {
		t.Errorf("unexpected redacted URL: %s", redacted)
	}
}

func TestBuildDialURL_BadScheme(t *testing.T) {
	_, _, err := buildDialURL(Config{URL: "https://relay.example.com", Token: "t"})
	if err == nil {
		t.Fatal("expected error for non-websocket scheme")
	}
}
