package envutil

import "testing"

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("MAIA_TEST_INT", "abc")
	if got := Int("MAIA_TEST_INT", 7); got != 7 {
		t.Fatalf("Int = %d, want 7", got)
	}
	t.Setenv("MAIA_TEST_INT", " 42 ")
	if got := Int("MAIA_TEST_INT", 7); got != 42 {
		t.Fatalf("Int = %d, want 42", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("MAIA_TEST_BOOL", "on")
	if !Bool("MAIA_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("MAIA_TEST_BOOL", "maybe")
	if Bool("MAIA_TEST_BOOL", false) {
		t.Fatalf("expected default on unparseable value")
	}
}

func TestStringDefault(t *testing.T) {
	t.Setenv("MAIA_TEST_STR", "  ")
	if got := String("MAIA_TEST_STR", "d"); got != "d" {
		t.Fatalf("String = %q", got)
	}
}

func TestFloat(t *testing.T) {
	t.Setenv("MAIA_TEST_FLOAT", "0.5")
	if got := Float("MAIA_TEST_FLOAT", 1); got != 0.5 {
		t.Fatalf("Float = %v", got)
	}
	t.Setenv("MAIA_TEST_FLOAT", "half")
	if got := Float("MAIA_TEST_FLOAT", 1); got != 1 {
		t.Fatalf("expected default, got %v", got)
	}
}
