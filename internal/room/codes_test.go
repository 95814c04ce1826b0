package room

import (
	"strings"
	"testing"
)

func TestRandomCodeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := randomCode(6)
		if len(code) != 6 {
			t.Fatalf("code %q length = %d", code, len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}
