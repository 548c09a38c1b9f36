package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/alexanderramin/retention/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliStart = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// Identifiers issued in creation order by the default per-year sequence.
const (
	idFilePlan = "2026-0000000001"
	idCategory = "2026-0000000002"
	idFolder   = "2026-0000000003"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, *testutil.Clock) {
	t.Helper()
	database := testutil.NewTestDB(t)
	clock := testutil.FixedClock(cliStart)
	eng := service.NewEngine(testutil.NewTestUoW(database), service.Options{Now: clock.Now})

	return &App{
		FilePlans:   service.NewFilePlanService(eng),
		Schedules:   service.NewScheduleService(eng),
		Disposition: service.NewDispositionService(eng),
		Holds:       service.NewHoldService(eng),
		Vital:       service.NewVitalRecordService(eng),
		Import:      service.NewImportService(eng),
		Now:         clock.Now,
		Confirm:     func(string, string) (bool, error) { return true, nil },
	}, clock
}

// executeCmd runs a cobra command and captures stdout/stderr without styling.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return stripANSI(buf.String()), err
}

func mustExecute(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "rmctl %v\n%s", args, out)
	return out
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

var scheduleIDPattern = regexp.MustCompile(`Created schedule (\S+) on`)

// seedScheduledCategory creates a file plan and a category whose schedule
// has the given steps, returning the schedule ID.
func seedScheduledCategory(t *testing.T, app *App, steps ...[]string) string {
	t.Helper()
	mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "HR")
	out := mustExecute(t, app, "schedule", "create", "--category", idCategory,
		"--authority", "GRS 1", "--instructions", "Destroy after one year")
	m := scheduleIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	for _, s := range steps {
		mustExecute(t, app, append([]string{"step", "add", "--schedule", m[1]}, s...)...)
	}
	return m[1]
}

func TestFilePlanCreateAndList(t *testing.T) {
	app, _ := testApp(t)

	out := mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	assert.Contains(t, out, "Created file_plan Corporate ("+idFilePlan+")")

	out = mustExecute(t, app, "fileplan", "list")
	assert.Contains(t, out, "Corporate")
	assert.Contains(t, out, idFilePlan)
}

func TestFilePlanCreate_RequiresName(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "fileplan", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"name" not set`)
}

func TestShow_UnknownRef(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "show", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no node with ID or identifier "nope"`)
}

func TestCutoffThenDestroyGate(t *testing.T) {
	app, clock := testApp(t)
	seedScheduledCategory(t, app,
		[]string{"--name", "cutoff"},
		[]string{"--name", "destroy", "--period", "year|1"},
	)
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")

	out := mustExecute(t, app, "action", "next", idFolder)
	assert.Contains(t, out, "cutoff  ● ELIGIBLE")

	out = mustExecute(t, app, "action", "execute", idFolder, "cutoff", "--actor", "alice")
	assert.Contains(t, out, "Executed cutoff on Case files")
	assert.Contains(t, out, "Next: destroy")

	out = mustExecute(t, app, "show", idFolder)
	assert.Contains(t, out, "cut off")
	assert.Contains(t, out, "NEXT ACTION   destroy")
	assert.Contains(t, out, "AUTHORITY     GRS 1")

	_, err := executeCmd(t, app, "action", "execute", idFolder, "destroy")
	require.Error(t, err)
	code, ok := domain.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNotEligible, code)

	out = mustExecute(t, app, "action", "eligible", idFolder)
	assert.Contains(t, out, "NOT ELIGIBLE")
	assert.Contains(t, out, "TIME    ✖ not met")

	clock.AdvanceDate(1, 0, 1)
	out = mustExecute(t, app, "action", "execute", idFolder, "destroy")
	assert.Contains(t, out, "Lifecycle complete.")

	out = mustExecute(t, app, "action", "history", idFolder)
	assert.Contains(t, out, "cutoff")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "destroy")
}

func TestUndoCutoff(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app,
		[]string{"--name", "cutoff"},
		[]string{"--name", "destroy", "--period", "year|1"},
	)
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")
	mustExecute(t, app, "action", "execute", idFolder, "cutoff")

	out := mustExecute(t, app, "action", "undo-cutoff", idFolder)
	assert.Contains(t, out, "Cutoff undone on Case files; next: cutoff")
}

func TestEventCompleteAndUndo(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app, []string{"--name", "cutoff", "--event", "case closed"})
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")

	out := mustExecute(t, app, "event", "complete", idFolder, "case closed", "--actor", "bob")
	assert.Contains(t, out, "✔ case closed")
	assert.Contains(t, out, "by bob")
	assert.Contains(t, out, "● ELIGIBLE")

	out = mustExecute(t, app, "event", "undo", idFolder, "case closed")
	assert.Contains(t, out, "○ case closed")
	assert.Contains(t, out, "NOT ELIGIBLE")

	_, err := executeCmd(t, app, "event", "complete", idFolder, "superseded")
	require.Error(t, err)
	assert.True(t, domain.IsUnknownEvent(err))
}

func TestAsOfOverride(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app, []string{"--name", "review", "--period", "year|5"})
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")

	out := mustExecute(t, app, "action", "as-of", idFolder, "2026-01-01")
	assert.Contains(t, out, "review on Case files is now due 2026-01-01")

	_, err := executeCmd(t, app, "action", "as-of", idFolder, "January")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestTransferTwoPhase(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app,
		[]string{"--name", "cutoff"},
		[]string{"--name", "transfer"},
	)
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")
	mustExecute(t, app, "action", "execute", idFolder, "cutoff")

	out := mustExecute(t, app, "action", "execute", idFolder, "transfer")
	m := regexp.MustCompile(`Pending transfer (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	out = mustExecute(t, app, "transfer", "list")
	assert.Contains(t, out, m[1])

	out = mustExecute(t, app, "transfer", "complete", m[1])
	assert.Contains(t, out, "Transfer "+m[1]+" complete")
	assert.Contains(t, out, "Case files")

	out = mustExecute(t, app, "transfer", "list")
	assert.Contains(t, out, "No pending transfers.")
}

func TestScheduleShowAndStepEdits(t *testing.T) {
	app, _ := testApp(t)
	schedID := seedScheduledCategory(t, app,
		[]string{"--name", "cutoff"},
		[]string{"--name", "destroy", "--period", "year|1"},
	)

	out := mustExecute(t, app, "schedule", "show", idCategory)
	assert.Contains(t, out, "DISPOSITION SCHEDULE")
	assert.Contains(t, out, "year|1")

	sched, err := app.Schedules.GetSchedule(context.Background(), mustNodeID(t, app, idCategory))
	require.NoError(t, err)
	require.Len(t, sched.Steps, 2)
	destroyID := sched.Steps[1].ID

	out = mustExecute(t, app, "step", "update", destroyID)
	assert.Contains(t, out, "No changes.")

	out = mustExecute(t, app, "step", "update", destroyID, "--period", "year|7", "--period-property", "cutOffDate")
	assert.Contains(t, out, "Updated period, periodProperty")

	out = mustExecute(t, app, "schedule", "update", schedID, "--record-level")
	assert.Contains(t, out, "LEVEL         record")

	out = mustExecute(t, app, "step", "remove", destroyID)
	assert.Contains(t, out, "Removed step "+destroyID)

	_, err = executeCmd(t, app, "step", "update", destroyID, "--period", "year|1", "--clear-period")
	require.Error(t, err)
}

func TestStepRemove_InUse(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app, []string{"--name", "cutoff"})
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")

	sched, err := app.Schedules.GetSchedule(context.Background(), mustNodeID(t, app, idCategory))
	require.NoError(t, err)

	_, err = executeCmd(t, app, "step", "remove", sched.Steps[0].ID)
	require.Error(t, err)
	assert.True(t, domain.IsStepInUse(err))
}

func TestRecordFileDeclareAndProps(t *testing.T) {
	app, _ := testApp(t)
	mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "HR")
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Payroll")

	out := mustExecute(t, app, "record", "file", "--folder", idFolder, "--name", "payslip.pdf",
		"--identifier", "PAY-1", "--prop", "originator=payroll")
	assert.Contains(t, out, "Created record payslip.pdf (PAY-1)")

	_, err := executeCmd(t, app, "record", "declare", "PAY-1")
	require.Error(t, err)
	assert.True(t, domain.IsMandatoryPropertyMissing(err))

	mustExecute(t, app, "record", "set-props", "PAY-1",
		"originatingOrganization=acme", "publicationDate=2026-01-01")
	out = mustExecute(t, app, "record", "declare", "PAY-1")
	assert.Contains(t, out, "Declared payslip.pdf (PAY-1)")

	_, err = executeCmd(t, app, "record", "set-id", "PAY-1", "PAY-2")
	require.Error(t, err)
	assert.True(t, domain.IsImmutableIdentifier(err))

	out = mustExecute(t, app, "record", "set-props", "PAY-1", "originator=")
	assert.Contains(t, out, "Updated 1 property on payslip.pdf")

	out = mustExecute(t, app, "record", "props", "PAY-1")
	assert.NotContains(t, out, "originator ")
	assert.Contains(t, out, "originatingOrganization")

	_, err = executeCmd(t, app, "record", "set-props", "PAY-1", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want key=value")
}

func TestFolderCloseReopen(t *testing.T) {
	app, _ := testApp(t)
	mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "HR")
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Payroll")

	out := mustExecute(t, app, "folder", "close", idFolder)
	assert.Contains(t, out, "Folder Payroll is now ○ closed")

	_, err := executeCmd(t, app, "record", "file", "--folder", idFolder, "--name", "late.pdf")
	require.Error(t, err)
	assert.True(t, domain.IsInvalidContainment(err))

	out = mustExecute(t, app, "folder", "reopen", idFolder)
	assert.Contains(t, out, "Folder Payroll is now ● open")
}

func TestMoveCopyDelete(t *testing.T) {
	app, _ := testApp(t)
	mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "HR")
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Payroll")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "Finance")
	const idFinance = "2026-0000000004"

	out := mustExecute(t, app, "move", idFolder, idFinance)
	assert.Contains(t, out, "Moved Payroll under Finance")

	out = mustExecute(t, app, "copy", idFolder, idCategory)
	assert.Contains(t, out, "Created folder Payroll")

	out = mustExecute(t, app, "fileplan", "tree", idFilePlan)
	assert.Contains(t, out, "├─ HR")
	assert.Contains(t, out, "└─ Finance")

	out = mustExecute(t, app, "delete", idFinance)
	assert.Contains(t, out, "Deleted category Finance")

	_, err := executeCmd(t, app, "show", idFolder)
	require.Error(t, err)
}

func TestHoldLifecycle(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app, []string{"--name", "cutoff"})
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Case files")

	out := mustExecute(t, app, "hold", "freeze", idFolder, "--name", "Smith v. Acme", "--reason", "litigation")
	assert.Contains(t, out, "Froze 1 node(s) under hold Smith v. Acme")

	holds, err := app.Holds.HeldBy(context.Background(), mustNodeID(t, app, idFolder))
	require.NoError(t, err)
	require.Len(t, holds, 1)
	holdID := holds[0].ID

	_, err = executeCmd(t, app, "action", "execute", idFolder, "cutoff")
	require.Error(t, err)
	assert.True(t, domain.IsNodeFrozen(err))

	out = mustExecute(t, app, "show", idFolder)
	assert.Contains(t, out, "FROZEN        litigation")

	out = mustExecute(t, app, "hold", "reason", holdID, "settlement talks")
	assert.Contains(t, out, "reason: settlement talks")

	out = mustExecute(t, app, "hold", "list", "--fileplan", idFilePlan)
	assert.Contains(t, out, "Smith v. Acme")
	assert.Contains(t, out, "settlement talks")

	out = mustExecute(t, app, "hold", "held", holdID)
	assert.Contains(t, out, "Case files")

	mustExecute(t, app, "hold", "unfreeze", holdID, idFolder)
	mustExecute(t, app, "action", "execute", idFolder, "cutoff")

	out = mustExecute(t, app, "hold", "relinquish", holdID)
	assert.Contains(t, out, "Relinquished hold "+holdID)
}

func TestVitalSetShowReview(t *testing.T) {
	app, clock := testApp(t)
	mustExecute(t, app, "fileplan", "create", "--name", "Corporate")
	mustExecute(t, app, "category", "create", "--parent", idFilePlan, "--name", "HR")
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Payroll")
	mustExecute(t, app, "record", "file", "--folder", idFolder, "--name", "payslip.pdf", "--identifier", "PAY-1")

	out := mustExecute(t, app, "vital", "set", idCategory, "--period", "month|3")
	assert.Contains(t, out, "Vital record review on HR set to month|3")

	out = mustExecute(t, app, "vital", "show", "PAY-1")
	assert.Contains(t, out, "enabled, inherited from")
	assert.Contains(t, out, "REVIEW     2026-04-15")

	clock.AdvanceDate(0, 1, 0)
	out = mustExecute(t, app, "vital", "review", "PAY-1")
	assert.Contains(t, out, "Reviewed payslip.pdf; next review 2026-05-15")

	_, err := executeCmd(t, app, "vital", "set", idCategory, "--period", "fortnight")
	require.Error(t, err)

	mustExecute(t, app, "vital", "clear", idCategory)
	out = mustExecute(t, app, "vital", "show", "PAY-1")
	assert.Contains(t, out, "DEFINED    no")
}

func TestImport(t *testing.T) {
	app, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
file_plan:
  name: Corporate
categories:
  - ref: hr
    name: Human Resources
    schedule:
      authority: GRS 1
      steps:
        - name: cutoff
folders:
  - ref: cases
    category_ref: hr
    name: Cases
records:
  - folder_ref: cases
    name: memo.txt
`), 0o644))

	out := mustExecute(t, app, "import", path)
	assert.Contains(t, out, "Imported file plan Corporate")
	assert.Contains(t, out, "1 categories, 1 folders, 1 records, 1 schedules")

	_, err := executeCmd(t, app, "import", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFormatterOutputIsPlainWhenNotATerminal(t *testing.T) {
	formatter.ConfigureColor(new(bytes.Buffer))
	assert.Equal(t, "text", formatter.Bold("text"))
}

func mustNodeID(t *testing.T, app *App, ref string) string {
	t.Helper()
	n, err := resolveNode(context.Background(), app, ref)
	require.NoError(t, err)
	return n.ID
}

func TestExecuteDestroy_Confirmation(t *testing.T) {
	app, _ := testApp(t)
	seedScheduledCategory(t, app, []string{"--name", "destroy"})
	mustExecute(t, app, "folder", "create", "--category", idCategory, "--name", "Shred box")

	var asked []string
	app.Confirm = func(title, description string) (bool, error) {
		asked = append(asked, title+" "+description)
		return false, nil
	}
	_, err := executeCmd(t, app, "action", "execute", idFolder, "destroy")
	require.Error(t, err)
	assert.ErrorIs(t, err, errDeclined)
	require.Len(t, asked, 1)
	assert.Contains(t, asked[0], "Destroy Shred box ("+idFolder+")?")
	assert.Contains(t, asked[0], "every record in it")

	out := mustExecute(t, app, "action", "next", idFolder)
	assert.Contains(t, out, "destroy")

	app.Confirm = func(string, string) (bool, error) {
		t.Fatal("--yes must not prompt")
		return false, nil
	}
	out = mustExecute(t, app, "action", "execute", idFolder, "destroy", "--yes")
	assert.Contains(t, out, "Executed destroy on Shred box")
	assert.Contains(t, out, "Lifecycle complete.")
}
