package harness

import (
	"strings"
	"testing"
)

// TestFunc is the body of a single harness test.
type TestFunc func(t *testing.T, h *Harness)

// HookFunc is a suite or per-test lifecycle hook.
type HookFunc func() error

// TestDescriptor declares one test of a suite. Params and ReturnsValue
// describe the declared signature of the test in the suite's source
// framework; a descriptor only qualifies as a runnable test when the name
// starts with "test", Params is zero and ReturnsValue is false.
type TestDescriptor struct {
	Name         string
	Params       int
	ReturnsValue bool
	Run          TestFunc
}

// testNamePrefix is the literal prefix a method name must carry to count
// as a test.
const testNamePrefix = "test"

func (d TestDescriptor) qualifies() bool {
	return strings.HasPrefix(d.Name, testNamePrefix) && d.Params == 0 && !d.ReturnsValue
}

// SuiteDefinition is the statically registered description of a test
// suite: its lifecycle hooks, its test descriptors, and optionally a Base
// definition it extends. The Base chain models a class inheritance chain;
// descriptors in a derived definition shadow same-named descriptors in
// their bases.
type SuiteDefinition struct {
	Name string
	Base *SuiteDefinition

	// BeforeSuite runs once before the first test of a run; a failure is
	// fatal to the whole suite. AfterSuite runs once after the last test.
	BeforeSuite HookFunc
	AfterSuite  HookFunc

	// BeforeEach and AfterEach run around every test body.
	BeforeEach HookFunc
	AfterEach  HookFunc

	Tests []TestDescriptor
}

// collectTests returns the qualifying tests of the definition chain with
// names de-duplicated across levels. The most derived descriptor wins; a
// name seen at a derived level shadows the base's descriptor even when
// the derived one does not itself qualify, matching single-dispatch
// semantics.
func (d *SuiteDefinition) collectTests() []TestDescriptor {
	seen := make(map[string]bool)
	var tests []TestDescriptor
	for def := d; def != nil; def = def.Base {
		for _, td := range def.Tests {
			if seen[td.Name] {
				continue
			}
			seen[td.Name] = true
			if td.qualifies() {
				tests = append(tests, td)
			}
		}
	}
	return tests
}

// CountTests returns the number of distinct qualifying tests across the
// definition chain.
func (d *SuiteDefinition) CountTests() int {
	return len(d.collectTests())
}
