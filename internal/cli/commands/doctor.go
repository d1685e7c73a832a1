package commands

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/rbridge/internal/cache"
	"github.com/leapstack-labs/rbridge/internal/cli/config"
	"github.com/leapstack-labs/rbridge/internal/cli/output"
)

// Check groups, in report order.
const (
	groupInterpreter   = "interpreter"
	groupPackages      = "packages"
	groupConfiguration = "configuration"
)

// DoctorOutput is the structured output of the doctor command.
type DoctorOutput struct {
	Checks []DoctorCheck `json:"checks" yaml:"checks"`
	OK     bool          `json:"ok" yaml:"ok"`
}

// DoctorCheck is one check result.
type DoctorCheck struct {
	Group  string `json:"group" yaml:"group"`
	Name   string `json:"name" yaml:"name"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that R is ready for rbridge",
		Long: `Check the R environment rbridge depends on:

- Rscript is on PATH (or at the configured rscript path)
- Rscript --version answers
- the jsonlite package is installed (required for json mode)
- the configured cache can be opened

The command fails when any check fails.`,
		Example: `  rbridge doctor
  rbridge doctor --rscript /opt/R/4.4/bin/Rscript -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutBridge(cmd)
			out := runChecks(cmd.Context(), cc)

			if err := renderDoctor(cc.Renderer, out); err != nil {
				return err
			}
			if !out.OK {
				return fmt.Errorf("R environment is not ready")
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cc *CommandContext) *DoctorOutput {
	out := &DoctorOutput{OK: true}
	add := func(group, name string, ok bool, detail string) {
		out.Checks = append(out.Checks, DoctorCheck{Group: group, Name: name, OK: ok, Detail: detail})
		out.OK = out.OK && ok
	}

	path, err := cc.Runner.LookPath()
	if err != nil {
		add(groupInterpreter, "Rscript", false, err.Error())
	} else {
		add(groupInterpreter, "Rscript", true, path)

		if version, err := cc.Runner.Version(ctx); err != nil {
			add(groupInterpreter, "version", false, err.Error())
		} else {
			add(groupInterpreter, "version", true, version)
		}

		switch ok, err := cc.Runner.HasPackage(ctx, "jsonlite"); {
		case err != nil:
			add(groupPackages, "jsonlite", false, err.Error())
		case !ok:
			add(groupPackages, "jsonlite", false, "not installed; run install.packages('jsonlite') or use --mode text")
		default:
			add(groupPackages, "jsonlite", true, "installed")
		}
	}

	file := config.GetConfigFileUsed()
	if file == "" {
		file = "none, using defaults"
	}
	add(groupConfiguration, "config file", true, file)
	add(groupConfiguration, "cache", true, describeCache(cc.Cfg.Cache))

	if p := cc.Cfg.Cache.Path; p != "" {
		store := cache.NewSQLiteStore(cc.Cfg.Cache.MaxEntries, cc.Logger)
		if err := store.Open(p); err != nil {
			add(groupConfiguration, "cache database", false, err.Error())
		} else {
			st, err := store.Stats(ctx)
			_ = store.Close()
			if err != nil {
				add(groupConfiguration, "cache database", false, err.Error())
			} else {
				add(groupConfiguration, "cache database", true, fmt.Sprintf("%d entries", st.Entries))
			}
		}
	}
	return out
}

func describeCache(c config.CacheConfig) string {
	switch {
	case !c.Enabled():
		return "disabled"
	case c.Path == "":
		return fmt.Sprintf("memory, %d entries", c.Size)
	case c.Size == 0:
		return "sqlite " + c.Path
	default:
		return fmt.Sprintf("memory, %d entries, then sqlite %s", c.Size, c.Path)
	}
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeYAML:
		return r.YAML(out)
	}

	styles := r.Styles()
	titleCaser := cases.Title(language.English)

	r.Println(styles.Header1.Render("rbridge doctor"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 40)))

	currentGroup := ""
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("")
			r.Println(styles.Bold.Render(titleCaser.String(currentGroup)))
		}
		r.StatusLine(check.OK, check.Name, check.Detail)
	}
	r.Println("")

	if out.OK {
		r.Success("R is ready.")
	} else {
		r.Println(styles.Error.Render("Some checks failed."))
	}
	return nil
}
