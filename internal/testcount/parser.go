// Package testcount extracts test result counts from a task's output as it
// streams past.
package testcount

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/crucible/internal/model"
)

// Parser recognizes summary lines of one test framework.
type Parser interface {
	// Name returns the parser name.
	Name() string
	// ParseLine adds whatever line reports to c and returns true if the
	// line was a result line.
	ParseLine(line string, c *model.TestCounts) bool
}

// cargoResultRegex matches the per-binary summary printed by cargo test:
//
//	test result: ok. 47 passed; 0 failed; 3 ignored; 0 measured; 0 filtered out; finished in 0.12s
var cargoResultRegex = regexp.MustCompile(`test result: \w+\.\s*(\d+) passed;\s*(\d+) failed;\s*(\d+) ignored`)

// CargoParser parses Rust/Cargo test output. A workspace member may have
// several test binaries, so every summary line is added.
type CargoParser struct{}

func (p *CargoParser) Name() string { return "cargo" }

func (p *CargoParser) ParseLine(line string, c *model.TestCounts) bool {
	m := cargoResultRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	c.Passed += atoi(m[1])
	c.Failed += atoi(m[2])
	c.Ignored += atoi(m[3])
	return true
}

// goResultRegex matches the per-test lines go test prints with -v:
//
//	--- PASS: TestFoo (0.00s)
//	--- FAIL: TestBar (0.01s)
//	--- SKIP: TestBaz (0.00s)
//
// Subtests are indented and counted too.
var goResultRegex = regexp.MustCompile(`^\s*---\s+(PASS|FAIL|SKIP):\s+`)

// GoParser parses go test -v output.
type GoParser struct{}

func (p *GoParser) Name() string { return "go" }

func (p *GoParser) ParseLine(line string, c *model.TestCounts) bool {
	m := goResultRegex.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	switch m[1] {
	case "PASS":
		c.Passed++
	case "FAIL":
		c.Failed++
	case "SKIP":
		c.Ignored++
	}
	return true
}

// pytestSummaryRegex matches the closing banner of a pytest session:
//
//	======= 45 passed, 2 failed, 3 skipped in 0.12s =======
var (
	pytestSummaryRegex = regexp.MustCompile(`^=+ .*\bin [\d.]+s\b.*=+$`)
	pytestCountRegex   = regexp.MustCompile(`(\d+) (passed|failed|skipped|error|errors)\b`)
)

// PytestParser parses pytest output.
type PytestParser struct{}

func (p *PytestParser) Name() string { return "pytest" }

func (p *PytestParser) ParseLine(line string, c *model.TestCounts) bool {
	if !pytestSummaryRegex.MatchString(strings.TrimSpace(line)) {
		return false
	}
	found := false
	for _, m := range pytestCountRegex.FindAllStringSubmatch(line, -1) {
		n := atoi(m[1])
		switch m[2] {
		case "passed":
			c.Passed += n
		case "skipped":
			c.Ignored += n
		default:
			c.Failed += n
		}
		found = true
	}
	return found
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var parsers = map[string]Parser{
	"cargo":  &CargoParser{},
	"go":     &GoParser{},
	"pytest": &PytestParser{},
	"python": &PytestParser{},
	"uv":     &PytestParser{},
	"poetry": &PytestParser{},
}

// ForCommand returns the parser for a toolchain command such as "cargo" or
// "/usr/local/go/bin/go", or nil when the command is not recognized.
func ForCommand(command string) Parser {
	name := strings.ToLower(filepath.Base(strings.ReplaceAll(command, `\`, "/")))
	name = strings.TrimSuffix(name, ".exe")
	return parsers[name]
}
