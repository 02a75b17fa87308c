package ids

import "testing"

func TestNewIsUniqueAndOrdered(t *testing.T) {
	prev := New()
	if !Valid(prev) {
		t.Fatalf("invalid id %q", prev)
	}
	for i := 0; i < 1000; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
	if Valid("not-a-ulid") {
		t.Fatal("expected invalid id")
	}
}
