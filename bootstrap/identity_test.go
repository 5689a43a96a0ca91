package bootstrap_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/blazer-engine/blazer/bootstrap"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want bootstrap.Version
	}{
		{"1", bootstrap.NewVersion(1, 0, 0)},
		{"1.3", bootstrap.NewVersion(1, 3, 0)},
		{" 0.1.0 ", bootstrap.NewVersion(0, 1, 0)},
		{"12.0.284", bootstrap.NewVersion(12, 0, 284)},
		{"1023.1023.4095", bootstrap.NewVersion(1023, 1023, 4095)},
	}
	for _, test := range tests {
		v, err := bootstrap.ParseVersion(test.in)
		qt.Assert(t, err, qt.IsNil, qt.Commentf("%q", test.in))
		qt.Assert(t, v, qt.Equals, test.want)
	}

	for _, in := range []string{"", "1..2", "a.b", "-1", "1.2.3.4", "4294967296"} {
		_, err := bootstrap.ParseVersion(in)
		qt.Assert(t, err, qt.ErrorMatches, `invalid version .*`, qt.Commentf("%q", in))
	}
}

func TestParseVersionPackedWidths(t *testing.T) {
	tests := []struct {
		in  string
		err string
	}{
		{"1024", `invalid version "1024": major exceeds 1023`},
		{"1.1024.0", `invalid version "1.1024.0": minor exceeds 1023`},
		{"1.3.4096", `invalid version "1.3.4096": patch exceeds 4095`},
	}
	for _, test := range tests {
		_, err := bootstrap.ParseVersion(test.in)
		qt.Assert(t, err, qt.ErrorMatches, test.err)
	}
}

func TestVersionString(t *testing.T) {
	qt.Assert(t, bootstrap.NewVersion(1, 3, 250).String(), qt.Equals, "1.3.250")
	v, err := bootstrap.ParseVersion(bootstrap.NewVersion(0, 1, 0).String())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, bootstrap.NewVersion(0, 1, 0))
}
