package urlnorm

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   \t", ""},
		{"HTTP://Example.com/Path/", "http://example.com/path"},
		{"http://example.com/path", "http://example.com/path"},
		{"https://example.com", "https://example.com/"},
		{"https://example.com/", "https://example.com/"},
		{"https://example.com//", "https://example.com/"},
		{"example.com/a/b/", "https://example.com/a/b"},
		{"//cdn.example.com/img.png", "https://cdn.example.com/img.png"},
		{"https://example.com/a?x=1#frag", "https://example.com/a"},
		{"https://user:pw@Example.com:8080/A", "https://example.com:8080/a"},
		{"  https://example.com/a  ", "https://example.com/a"},
		{"http://[::1:bad", "http://[::1:bad"},
		{"file:///etc/passwd", "file:///etc/passwd"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTP://Example.com/Path/",
		"example.com",
		"https://example.com/a%2Fb/",
		"https://example.com/100%",
		"https://example.com/a b/",
		"not a url at all",
		"mailto:someone@example.com",
		"http://[::1:bad",
		"//host/x/",
		"https://例え.jp/パス/",
		"   ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestSeen(t *testing.T) {
	t.Parallel()

	var seen Seen
	if !seen.Add("https://example.com/a") {
		t.Fatalf("first add should report new")
	}
	if seen.Add("https://example.com/a") {
		t.Fatalf("second add should report duplicate")
	}
	if !seen.Add("https://example.com/b") {
		t.Fatalf("different key should be new")
	}
	if seen.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", seen.Len())
	}
}
