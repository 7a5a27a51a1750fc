//go:build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/wuxia-session/integration/runner"
)

var caseFlag = flag.String("case", "", "Name of test case to run (from integration/cases/), comma-separated")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")

func TestMain(m *testing.M) {
	fmt.Printf("Running Wuxia preview integration tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())

	code := m.Run()
	os.Exit(code)
}

func apiBaseURL() string {
	if url := os.Getenv("API_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func newRunner() *runner.Runner {
	r := runner.NewRunner(apiBaseURL(), os.Getenv("AUTH_TOKEN"))
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = runner.ErrorHandlingMode(*errFlag)
	r.Logger = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

// TestIntegrationSuites runs every case file that is not a sequence.
func TestIntegrationSuites(t *testing.T) {
	files, err := discoverTestFiles("cases")
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}

	var jobs []runner.TestJob
	for _, file := range files {
		suite, err := runner.LoadTestSuite(file)
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		if suite.IsSequence() {
			continue
		}
		jobs = append(jobs, runner.TestJob{Name: suite.Name, Suite: suite, CaseFile: file})
	}
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	runJobs(t, newRunner(), jobs)
}

// TestSingleSuite runs the cases named by -case, expanding sequences.
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Use -case flag to run a specific test case")
	}

	var jobs []runner.TestJob
	for name := range strings.SplitSeq(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		expanded, err := runner.LoadTestSuiteWithExpansion(filepath.Join("cases", name), "cases")
		if err != nil {
			t.Fatalf("Failed to load test case %s: %v", name, err)
		}
		jobs = append(jobs, expanded...)
	}

	runJobs(t, newRunner(), jobs)
}

func runJobs(t *testing.T, r *runner.Runner, jobs []runner.TestJob) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var failed []string
	for i, job := range jobs {
		t.Logf("[%d/%d] Starting test suite: %s (%d steps)", i+1, len(jobs), job.Name, len(job.Suite.Steps))

		result, err := r.RunSuite(ctx, job.Suite)
		if err != nil && result.Error == nil {
			result.Error = err
		}
		t.Logf("Session ID: %s", result.SessionID)

		suiteFailed := result.Error != nil
		for _, step := range result.Results {
			switch {
			case step.IsReset && step.Success:
				t.Logf("   ↻ %s (%v)", step.StepName, step.Duration)
			case step.Success:
				t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
			default:
				suiteFailed = true
				t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
			}
		}

		if suiteFailed {
			failed = append(failed, job.Name)
			t.Errorf("[%d/%d] FAILED: %s", i+1, len(jobs), job.Name)
		} else {
			t.Logf("[%d/%d] PASSED: %s in %v", i+1, len(jobs), job.Name, result.Duration)
		}
	}

	t.Logf("Integration Test Summary: %d passed, %d failed", len(jobs)-len(failed), len(failed))
	if len(failed) > 0 {
		t.Fatalf("Integration tests failed: %s", strings.Join(failed, ", "))
	}
}

// discoverTestFiles finds all JSON test files in the given directory
func discoverTestFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func getIntEnv(name string, defaultValue int) int {
	if value := os.Getenv(name); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
