package runner

import (
	"time"
)

// Step commands. A step with no command sends Input as a free-text action.
const (
	CommandAction    = "action"
	CommandTalk      = "talk"
	CommandCultivate = "cultivate"
	CommandEquip     = "equip"
	CommandUnequip   = "unequip"
	CommandDrop      = "drop"
	CommandSuicide   = "suicide"
	CommandReset     = "reset"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one session call and its expected outcome. Input is the
// action text, the NPC line, the cultivation count or the item instance id,
// depending on Command.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Command      string       `json:"command,omitempty"`
	NPC          string       `json:"npc,omitempty"`
	Input        string       `json:"input,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Round      *int     `json:"round,omitempty"`
	RoundDelta *int     `json:"round_delta,omitempty"` // relative to the previous step
	Location   *string  `json:"location,omitempty"`
	Morality   *int     `json:"morality,omitempty"`
	Stamina    *int     `json:"stamina,omitempty"`
	Internal   *int     `json:"internal_power,omitempty"`
	TimeOfDay  *string  `json:"time_of_day,omitempty"`
	IsDead     *bool    `json:"is_dead,omitempty"`
	Inventory  []string `json:"inventory,omitempty"` // item names, order independent
	Equipped   []string `json:"equipped,omitempty"`  // item names, order independent

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`

	// ErrorContains expects the step to fail with a matching error.
	ErrorContains string `json:"error_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // reset steps do not count toward pass/fail metrics
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	Error     error
	Duration  time.Duration
	SessionID string // session used for this run, for matching client logs
}
