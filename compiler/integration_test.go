package compiler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chazu/clox/vm"
)

// runSource compiles and executes source, returning what the VM printed.
func runSource(t *testing.T, source string) (vm.Value, string, error) {
	t.Helper()
	chunk, err := compileQuiet(source)
	if err != nil {
		t.Fatalf("Compile(%q): %v", source, err)
	}
	var out bytes.Buffer
	v, err := vm.New(vm.WithOutput(&out)).Run(chunk)
	return v, out.String(), err
}

func TestCompileAndRun(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"8 - 4 - 2", "2"},
		{"16 / 4 / 2", "2"},
		{"-5 / 2", "-2.5"},
		{"1.2 + 3.4", "4.6"},
		{"0.1 + 0.2", "0.30000000000000004"},
		{"--3", "3"},
		{"1 / 0", "inf"},
		{"-1 / 0", "-inf"},
		{"!nil", "true"},
		{"!true", "false"},
		{"!!false", "false"},
		{"1 == 1", "true"},
		{"1 != 1", "false"},
		{"1 < 2", "true"},
		{"1 > 2", "false"},
		{"3 >= 3", "true"},
		{"1 >= 1", "true"},
		{"true == false", "false"},
		{"2 <= 1", "false"},
		{"nil == nil", "true"},
		{"nil == false", "false"},
		{"true == true", "true"},
		{"1 == true", "false"},
		{"!true == false", "true"},
		{"1 + 2 > 3 * 4", "false"},
		{"(1 < 2) == (3 < 4)", "true"},
		{"// answer\n6 * 7", "42"},
	}

	for _, tc := range tests {
		v, out, err := runSource(t, tc.source)
		if err != nil {
			t.Errorf("Run(%q): %v", tc.source, err)
			continue
		}
		if out != tc.want+"\n" {
			t.Errorf("Run(%q) printed %q, want %q", tc.source, out, tc.want+"\n")
		}
		if v.String() != tc.want {
			t.Errorf("Run(%q) = %v, want %s", tc.source, v, tc.want)
		}
	}
}

func TestCompileAndRunTypeErrors(t *testing.T) {
	tests := []struct {
		source string
		line   int
	}{
		{"-true", 1},
		{"-nil", 1},
		{"1 + nil", 1},
		{"true * 2", 1},
		{"true < false", 1},
		{"!1", 1},
		{"1 +\n\n(2 > nil)", 3},
	}

	for _, tc := range tests {
		_, out, err := runSource(t, tc.source)
		if !errors.Is(err, vm.ErrTypeMismatch) {
			t.Errorf("Run(%q) err = %v, want ErrTypeMismatch", tc.source, err)
			continue
		}
		var rerr *vm.RuntimeError
		if errors.As(err, &rerr) && rerr.Line != tc.line {
			t.Errorf("Run(%q) fault line = %d, want %d", tc.source, rerr.Line, tc.line)
		}
		if out != "" {
			t.Errorf("Run(%q) printed %q after a fault", tc.source, out)
		}
	}
}

func TestCompileAndRunListing(t *testing.T) {
	var listing, out bytes.Buffer
	chunk, err := New(WithDisassembly(&listing)).Compile("1.2 + 3.4")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := "== code ==\n" +
		"0000    1 OP_CONSTANT      '1.2'\n" +
		"0001    | OP_CONSTANT      '3.4'\n" +
		"0002    | OP_ADD\n" +
		"0003    | OP_RETURN\n"
	if listing.String() != want {
		t.Errorf("listing =\n%s\nwant\n%s", listing.String(), want)
	}
	if _, err := vm.New(vm.WithOutput(&out)).Run(chunk); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "4.6\n" {
		t.Errorf("printed %q, want %q", out.String(), "4.6\n")
	}
}
