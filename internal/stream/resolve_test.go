package stream

import "testing"

func TestResolveBinary_FindsRealBinary(t *testing.T) {
	path, err := ResolveBinary("sh")
	if err != nil {
		t.Fatalf("ResolveBinary(sh) failed: %v", err)
	}
	if path == "" {
		t.Error("expected a non-empty resolved path")
	}
}

func TestResolveBinary_CachesMissingBinary(t *testing.T) {
	const name = "definitely-not-a-real-binary-xyz"
	_, err1 := ResolveBinary(name)
	if err1 == nil {
		t.Fatal("expected an error for a nonexistent binary")
	}
	_, err2 := ResolveBinary(name)
	if err2 == nil {
		t.Fatal("expected the cached failure to still error on second call")
	}
}

func TestResolveBinary_CachesSuccess(t *testing.T) {
	p1, err := ResolveBinary("bash")
	if err != nil {
		t.Fatalf("ResolveBinary(bash) failed: %v", err)
	}
	p2, err := ResolveBinary("bash")
	if err != nil {
		t.Fatalf("second ResolveBinary(bash) failed: %v", err)
	}
	if p1 != p2 {
		t.Errorf("cached resolution changed: %q vs %q", p1, p2)
	}
}
