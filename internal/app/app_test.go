package app

import "testing"

func TestRunDispatch(t *testing.T) {
	if code := Run(nil); code != 2 {
		t.Fatalf("Run(nil) = %d, want 2", code)
	}
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("Run(help) = %d, want 0", code)
	}
	if code := Run([]string{"--help"}); code != 0 {
		t.Fatalf("Run(--help) = %d, want 0", code)
	}
	if code := Run([]string{"bogus"}); code != 2 {
		t.Fatalf("Run(bogus) = %d, want 2", code)
	}
	if code := Run([]string{"genkey"}); code != 0 {
		t.Fatalf("Run(genkey) = %d, want 0", code)
	}
	if code := Run([]string{"history", "bogus"}); code != 2 {
		t.Fatalf("Run(history bogus) = %d, want 2", code)
	}
	if code := Run([]string{"translate"}); code != 2 {
		t.Fatalf("Run(translate) with no text = %d, want 2", code)
	}
}
