package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/ocsnap/internal/config"
	"github.com/thoreinstein/ocsnap/internal/doctor"
	"github.com/thoreinstein/ocsnap/internal/errors"
)

var (
	doctorJSON bool
	doctorAll  bool
	doctorFix  bool
)

// errDoctorWarnings is a sentinel error for exit code 1.
var errDoctorWarnings = errors.New("doctor found warnings")

// errDoctorErrors is a sentinel error for exit code 2.
var errDoctorErrors = errors.New("doctor found errors")

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false,
		"output results as JSON")
	doctorCmd.Flags().BoolVar(&doctorAll, "all", false,
		"show every check, including passed ones")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false,
		"restore private permissions on the snapshot store")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and store issues",
	Long: `Run diagnostic checks on the ocsnap configuration, the OpenClaw source
directories, the snapshot store and its snapshots.

Output modes:
  (default)   Show errors and warnings
  --all       Show all checks including passed ones
  --json      Machine-readable JSON output
  -q          No output, exit code only

Exit codes:
  0 - No errors or warnings
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  ocsnap doctor
  ocsnap doctor --fix
  ocsnap doctor --json`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if doctorJSON && doctorAll {
			return errors.NewUserError(errors.New("conflicting flags"), "--json already includes every check")
		}
		return nil
	},
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	store := openStore(cmd)

	path := configFile
	if path == "" {
		path = config.UsedFile()
	}

	runner := doctor.NewRunner(
		doctor.NewConfigCheck(path),
		doctor.NewSourcesCheck(store.Locator()),
		doctor.NewStoreCheck(store.Root()),
		doctor.NewIntegrityCheck(store),
		doctor.NewProcessToolCheck(currentConfig().ProcessName),
	)
	return runDoctorWithWriter(stdout(cmd), runner)
}

func runDoctorWithWriter(w io.Writer, runner *doctor.Runner) error {
	report := runner.Run()

	if doctorFix {
		if applyFixes(w, runner) {
			report = runner.Run()
		}
	}

	if err := outputDoctorReport(w, report); err != nil {
		return err
	}

	switch {
	case report.HasErrors():
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	case report.HasWarnings():
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

// applyFixes runs every fixer with pending issues and reports whether any
// fix was attempted.
func applyFixes(w io.Writer, runner *doctor.Runner) bool {
	attempted := false
	for _, check := range runner.Checks() {
		fixer, ok := check.(doctor.Fixer)
		if !ok || !fixer.CanFix() {
			continue
		}
		for _, r := range fixer.Fix() {
			attempted = true
			if r.Fixed {
				printSuccess(w, "%s: %s", r.Path, r.Description)
			} else {
				errorColor.Fprintf(w, "✗ %s: %s\n", r.Path, r.Description)
			}
		}
	}
	if attempted {
		fmt.Fprintln(w)
	}
	return attempted
}

func outputDoctorReport(w io.Writer, report *doctor.Report) error {
	if doctorJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(report), "encoding JSON")
	}

	shown := report.Problems()
	if doctorAll {
		shown = report.Results
	}
	for _, result := range shown {
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(result.Status), result.Category, result.Name, result.Message)
		if result.FixHint != "" && result.Status.IsProblem() {
			fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("hint:"), result.FixHint)
		}
	}
	if len(shown) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
	return nil
}

func statusIcon(s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return successColor.Sprint("✓")
	case doctor.SeverityInfo:
		return infoColor.Sprint("ℹ")
	case doctor.SeverityWarning:
		return warnColor.Sprint("⚠")
	case doctor.SeverityError:
		return errorColor.Sprint("✗")
	default:
		return "?"
	}
}
