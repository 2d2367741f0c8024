package testutil_test

import (
	"testing"

	"github.com/vertsql/vertsql/testutil"
)

func TestGolden(t *testing.T) {
	tests, err := testutil.ReadTests("tests.yml")
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) == 0 {
		t.Fatal("no test cases loaded from tests.yml")
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.RunTest(t, tc)
		})
	}
}

func TestStripHeredoc(t *testing.T) {
	got := testutil.StripHeredoc("\n\tselect 1\n\tfrom trades\n")
	want := "select 1\nfrom trades\n"
	if got != want {
		t.Errorf("StripHeredoc: got %q, want %q", got, want)
	}
}
