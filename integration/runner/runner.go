package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jwebster45206/wuxia-session/internal/remote"
	"github.com/jwebster45206/wuxia-session/pkg/chat"
	"github.com/jwebster45206/wuxia-session/pkg/session"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running preview API
type Runner struct {
	BaseURL           string
	Token             string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL, token string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Token:             token,
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite resets the preview, starts a fresh session and runs every step.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	client := remote.NewClient(r.BaseURL, r.Token, r.Timeout, nil)
	sess := session.New(client, session.Options{})
	defer sess.Close()
	result.SessionID = sess.ID

	if err := r.reset(ctx, sess); err != nil {
		result.Error = fmt.Errorf("failed to reset preview: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	prevRound := sess.Store().Snapshot().Round
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, sess, step, prevRound)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if snap := sess.Store().Snapshot(); snap != nil {
			prevRound = snap.Round
		}

		if !stepResult.Success && r.ErrorHandlingMode == ErrorHandlingExit {
			result.Error = fmt.Errorf("step %d (%s) failed: %w", i+1, step.Name, stepResult.Error)
			break
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// reset clears server progress and reloads the session from it.
func (r *Runner) reset(ctx context.Context, sess *session.Session) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+source.PathPreviewReset, nil)
	if err != nil {
		return fmt.Errorf("failed to build reset request: %w", err)
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send reset request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset returned status %d", resp.StatusCode)
	}
	return sess.Start(ctx)
}

func (r *Runner) runStep(ctx context.Context, sess *session.Session, step TestStep, prevRound int) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
		IsReset:  step.Command == CommandReset,
	}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	logLen := sess.Log().Len()
	err := r.execute(stepCtx, sess, step)
	result.ResponseText = narration(sess.Log(), logLen)

	if err := checkOutcome(step.Expectations, err); err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	if err := checkExpectations(step.Expectations, sess.Store().Snapshot(), prevRound, result.ResponseText); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (r *Runner) execute(ctx context.Context, sess *session.Session, step TestStep) error {
	switch step.Command {
	case "", CommandAction:
		return sess.SubmitAction(ctx, step.Input)
	case CommandTalk:
		if err := sess.EnterDialogue(step.NPC); err != nil {
			return err
		}
		defer sess.LeaveDialogue()
		return sess.Chat(ctx, step.Input)
	case CommandCultivate:
		times, err := strconv.Atoi(step.Input)
		if err != nil {
			return fmt.Errorf("invalid cultivation count %q: %w", step.Input, err)
		}
		return sess.Cultivate(ctx, times)
	case CommandEquip:
		return sess.Equip(ctx, itemID(sess.Store().Snapshot(), step.Input))
	case CommandUnequip:
		return sess.Unequip(ctx, itemID(sess.Store().Snapshot(), step.Input))
	case CommandDrop:
		return sess.Drop(ctx, itemID(sess.Store().Snapshot(), step.Input))
	case CommandSuicide:
		return sess.ForceSuicide(ctx)
	case CommandReset:
		return r.reset(ctx, sess)
	}
	return fmt.Errorf("unknown step command %q", step.Command)
}

// itemID resolves an item name to its instance id. Unknown names pass
// through so the server can reject them.
func itemID(snap *state.RoundSnapshot, nameOrID string) string {
	if snap == nil {
		return nameOrID
	}
	for _, item := range snap.Inventory {
		if item.Name == nameOrID {
			return item.InstanceID
		}
	}
	return nameOrID
}

// narration joins the narrator and system lines logged since from.
func narration(log *chat.Log, from int) string {
	msgs := log.Messages()
	if from > len(msgs) {
		from = len(msgs)
	}
	var lines []string
	for _, msg := range msgs[from:] {
		if msg.Role != chat.RolePlayer {
			lines = append(lines, msg.Content)
		}
	}
	return strings.Join(lines, "\n")
}

func checkOutcome(exp Expectations, err error) error {
	switch {
	case exp.ErrorContains == "" && err != nil:
		return fmt.Errorf("step failed: %w", err)
	case exp.ErrorContains != "" && err == nil:
		return fmt.Errorf("expected error containing '%s', got none", exp.ErrorContains)
	case exp.ErrorContains != "" && !strings.Contains(err.Error(), exp.ErrorContains):
		return fmt.Errorf("expected error containing '%s': %w", exp.ErrorContains, err)
	}
	return nil
}

var errNoSnapshot = errors.New("session has no snapshot")

// checkExpectations validates the test expectations against the session snapshot
func checkExpectations(exp Expectations, snap *state.RoundSnapshot, prevRound int, responseText string) error {
	if snap == nil {
		return errNoSnapshot
	}

	if exp.Round != nil && snap.Round != *exp.Round {
		return fmt.Errorf("expected round %d, got %d", *exp.Round, snap.Round)
	}
	if exp.RoundDelta != nil && snap.Round-prevRound != *exp.RoundDelta {
		return fmt.Errorf("expected round to advance by %d, got %d", *exp.RoundDelta, snap.Round-prevRound)
	}
	if exp.Location != nil && snap.CurrentLocation() != *exp.Location {
		return fmt.Errorf("expected location %s, got %s", *exp.Location, snap.CurrentLocation())
	}
	if exp.Morality != nil && snap.Morality != *exp.Morality {
		return fmt.Errorf("expected morality %d, got %d", *exp.Morality, snap.Morality)
	}
	if exp.Stamina != nil && snap.Stamina != *exp.Stamina {
		return fmt.Errorf("expected stamina %d, got %d", *exp.Stamina, snap.Stamina)
	}
	if exp.Internal != nil && snap.Internal != *exp.Internal {
		return fmt.Errorf("expected internal power %d, got %d", *exp.Internal, snap.Internal)
	}
	if exp.TimeOfDay != nil && snap.TimeOfDay != *exp.TimeOfDay {
		return fmt.Errorf("expected time of day %s, got %s", *exp.TimeOfDay, snap.TimeOfDay)
	}
	if exp.IsDead != nil && snap.IsDead != *exp.IsDead {
		return fmt.Errorf("expected is_dead to be %t, got %t", *exp.IsDead, snap.IsDead)
	}

	if exp.Inventory != nil {
		if err := sameNames("inventory", exp.Inventory, snap.Inventory, func(state.InventoryItem) bool { return true }); err != nil {
			return err
		}
	}
	if exp.Equipped != nil {
		if err := sameNames("equipped", exp.Equipped, snap.Inventory, func(item state.InventoryItem) bool { return item.Equipped }); err != nil {
			return err
		}
	}

	// Response content checks
	for _, expectedText := range exp.ResponseContains {
		if !strings.Contains(responseText, expectedText) {
			return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
		}
	}
	for _, unexpectedText := range exp.ResponseNotContains {
		if strings.Contains(responseText, unexpectedText) {
			return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
		}
	}

	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	if exp.ResponseMinLength != nil {
		if n := len([]rune(responseText)); n < *exp.ResponseMinLength {
			return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, n)
		}
	}

	return nil
}

// sameNames compares expected item names with the names of the items keep
// selects, ignoring order.
func sameNames(what string, expected []string, items []state.InventoryItem, keep func(state.InventoryItem) bool) error {
	var actual []string
	for _, item := range items {
		if keep(item) {
			actual = append(actual, item.Name)
		}
	}
	want := slices.Sorted(slices.Values(expected))
	got := slices.Sorted(slices.Values(actual))
	if !slices.Equal(want, got) {
		return fmt.Errorf("expected %s %v, got %v", what, want, got)
	}
	return nil
}
