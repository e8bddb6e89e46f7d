package domain

import (
	"strings"
	"testing"
)

// FuzzParseApplicationID checks that parsing never panics and that accepted
// ids never contain path separators.
func FuzzParseApplicationID(f *testing.F) {
	f.Add("")
	f.Add("APP-0001")
	f.Add("../etc/passwd")
	f.Add("app\x00suffix")
	f.Add(strings.Repeat("x", 100))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseApplicationID(input)
		if err != nil {
			return
		}
		s := id.String()
		if strings.ContainsAny(s, `/\.`) || strings.ContainsRune(s, 0) {
			t.Errorf("accepted unsafe application id %q", s)
		}
		if len(s) == 0 || len(s) > maxApplicationIDLength {
			t.Errorf("accepted id with invalid length %d", len(s))
		}
	})
}

// FuzzParseVerificationID checks round-tripping of accepted ids.
func FuzzParseVerificationID(f *testing.F) {
	f.Add("VER-ABCD1234")
	f.Add("VER-abcd1234")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseVerificationID(input)
		if err != nil {
			return
		}
		again, err := ParseVerificationID(id.String())
		if err != nil || again != id {
			t.Errorf("accepted id %q failed round-trip", input)
		}
	})
}
