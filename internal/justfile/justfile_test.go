package justfile

import "testing"

func TestParseList(t *testing.T) {
	out := `Available recipes:
    build            # compile everything
    test filter=''   # run the test suite
    deploy
    [lint]
    fmt              # format sources
`
	commands := ParseList(out)
	if len(commands) != 4 {
		t.Fatalf("commands = %+v", commands)
	}

	tests := []struct {
		name, description string
	}{
		{"build", "compile everything"},
		{"test", "run the test suite"},
		{"deploy", ""},
		{"fmt", "format sources"},
	}
	for i, tt := range tests {
		if commands[i].Name != tt.name {
			t.Errorf("command %d name = %q, want %q", i, commands[i].Name, tt.name)
		}
		if commands[i].Description != tt.description {
			t.Errorf("command %d description = %q, want %q", i, commands[i].Description, tt.description)
		}
	}
}

func TestParseListEmpty(t *testing.T) {
	if got := ParseList("Available recipes:\n"); len(got) != 0 {
		t.Errorf("commands = %+v", got)
	}
	if got := ParseList(""); len(got) != 0 {
		t.Errorf("commands = %+v", got)
	}
}

func TestParseListIgnoresUnindentedText(t *testing.T) {
	out := "error: Justfile does not exist\nAvailable recipes:\n    ok\n"
	commands := ParseList(out)
	if len(commands) != 1 || commands[0].Name != "ok" {
		t.Errorf("commands = %+v", commands)
	}
}
