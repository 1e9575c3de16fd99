package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotText, gotChat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.PostForm.Get("text")
		gotChat = r.PostForm.Get("chat_id")
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithAPIURL(server.URL)
	if err := n.PublishDigest(context.Background(), strings.Repeat("é", 5000)); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}
	if gotChat != "42" {
		t.Fatalf("unexpected chat: %s", gotChat)
	}
	if utf8.RuneCountInString(gotText) != maxMessageRunes {
		t.Fatalf("expected message cut to %d runes, got %d", maxMessageRunes, utf8.RuneCountInString(gotText))
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").PublishDigest(context.Background(), "x"); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewNotifier("TOKEN", "42").WithAPIURL(server.URL)
	if err := n.PublishDigest(context.Background(), "x"); err == nil {
		t.Fatalf("expected status error")
	}
}
