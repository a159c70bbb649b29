package research

import "testing"

func TestNormalizeURLStripsTrackingParams(t *testing.T) {
	raw := "https://arxiv.org/abs/2401.00001?utm_source=twitter&ref=share#section-2"
	got := NormalizeURL(raw)
	want := "https://arxiv.org/abs/2401.00001"
	if got != want {
		t.Fatalf("NormalizeURL(%q) = %q, want %q", raw, got, want)
	}
}

func TestUUID12StableAcrossTrackingParams(t *testing.T) {
	a := UUID12("https://arxiv.org/abs/2401.00001?utm_source=twitter")
	b := UUID12("https://arxiv.org/abs/2401.00001?ref=newsletter")
	if a != b {
		t.Fatalf("UUID12 differs for equivalent URLs: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("UUID12 length = %d, want 12", len(a))
	}
}

func TestUUID12DiffersForDifferentURLs(t *testing.T) {
	a := UUID12("https://arxiv.org/abs/2401.00001")
	b := UUID12("https://arxiv.org/abs/2401.00002")
	if a == b {
		t.Fatalf("UUID12 collided for distinct URLs")
	}
}
