package proc

import (
	"reflect"
	"strings"
	"testing"
)

func TestDescendants(t *testing.T) {
	table := []Info{
		{PID: 1, PPID: 0, Name: "init"},
		{PID: 10, PPID: 1, Name: "crucible"},
		{PID: 20, PPID: 10, Name: "cargo"},
		{PID: 30, PPID: 20, Name: "rustc"},
		{PID: 31, PPID: 20, Name: "rustc"},
		{PID: 40, PPID: 30, Name: "cc"},
		{PID: 50, PPID: 1, Name: "sshd"},
	}

	tests := []struct {
		name string
		pid  int
		want []int
	}{
		{"whole tree breadth first", 20, []int{30, 31, 40}},
		{"leaf", 40, nil},
		{"unknown pid", 999, nil},
		{"subtree", 30, []int{40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Descendants(table, tt.pid)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Descendants(%d) = %v, want %v", tt.pid, got, tt.want)
			}
		})
	}
}

func TestDescendants_Cycle(t *testing.T) {
	// A corrupted snapshot must not loop forever.
	table := []Info{
		{PID: 2, PPID: 3},
		{PID: 3, PPID: 2},
		{PID: 4, PPID: 4},
	}

	got := Descendants(table, 2)
	if !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("Descendants() = %v, want [3]", got)
	}
	if got := Descendants(table, 4); got != nil {
		t.Errorf("Descendants(self-parented) = %v, want nil", got)
	}
}

func TestMatchName(t *testing.T) {
	candidates := []string{"cargo", "rustc", "lld-link"}

	tests := []struct {
		name string
		want bool
	}{
		{"cargo", true},
		{"Cargo", true},
		{"cargo.exe", true},
		{"RUSTC.EXE", true},
		{"/usr/local/bin/rustc", true},
		{`C:\Users\ci\.cargo\bin\cargo.exe`, true},
		{"lld-link.exe", true},
		{"cargo-watch", false},
		{"rust", false},
		{"", false},
		{".exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchName(tt.name, candidates); got != tt.want {
				t.Errorf("MatchName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMatchName_NoCandidates(t *testing.T) {
	if MatchName("cargo", nil) {
		t.Error("MatchName() with no candidates should be false")
	}
}

func TestParsePS(t *testing.T) {
	input := `    1     0 launchd
  412     1 /usr/sbin/cfprefsd
  900   412 cargo
  901   900 Google Chrome Helper
garbage line here
  902
`
	got, err := parsePS(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parsePS() error = %v", err)
	}
	want := []Info{
		{PID: 1, PPID: 0, Name: "launchd"},
		{PID: 412, PPID: 1, Name: "/usr/sbin/cfprefsd"},
		{PID: 900, PPID: 412, Name: "cargo"},
		{PID: 901, PPID: 900, Name: "Google Chrome Helper"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parsePS() = %+v, want %+v", got, want)
	}
}

func TestParseTasklist(t *testing.T) {
	input := `"System Idle Process","0","Services","0","8 K"
"cargo.exe","4242","Console","1","10,240 K"
"rustc.exe","4300","Console","1","120,004 K"
"broken"
`
	got, err := parseTasklist(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseTasklist() error = %v", err)
	}
	want := []Info{
		{PID: 0, Name: "System Idle Process"},
		{PID: 4242, Name: "cargo.exe"},
		{PID: 4300, Name: "rustc.exe"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseTasklist() = %+v, want %+v", got, want)
	}
}

func TestParseTasklist_Empty(t *testing.T) {
	got, err := parseTasklist(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parseTasklist() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("parseTasklist(\"\") = %v, want empty", got)
	}
}
