package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/rbridge/internal/cli/output"
	"github.com/leapstack-labs/rbridge/pkg/bridge"
	"github.com/leapstack-labs/rbridge/pkg/value"
)

// Job is one entry of a batch file.
type Job struct {
	Name     string         `yaml:"name"`
	File     string         `yaml:"file"`
	Code     string         `yaml:"code"`
	Function string         `yaml:"function"`
	Shape    string         `yaml:"shape"`
	Mode     string         `yaml:"mode"`
	Args     map[string]any `yaml:"args"`
}

// label returns the name shown for job i.
func (j Job) label(i int) string {
	if j.Name != "" {
		return j.Name
	}
	if j.Function != "" {
		return fmt.Sprintf("%d:%s", i+1, j.Function)
	}
	return fmt.Sprintf("%d", i+1)
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Run many R calls concurrently from a YAML file",
		Long: `Run every job in a YAML file and report each result.

The file holds a list of jobs. Each job names a function and either a
source file (resolved relative to the jobs file) or inline code, plus an
optional shape, mode and argument mapping. At most --concurrency jobs run
at once. A failing job does not stop the others; the command fails when
any job failed.`,
		Example: `  # jobs.yaml
  - name: sum
    file: add.R
    function: add
    shape: float
    args: {x: 5, y: 3}
  - code: "sq <- function(x) x^2"
    function: sq
    mode: text
    args: {x: 4}

  rbridge batch jobs.yaml --concurrency 8 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}

	cmd.Flags().IntP("concurrency", "j", 0, "Maximum number of concurrent R processes (default from config)")

	return cmd
}

// LoadJobs reads a batch file.
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs file: %w", err)
	}
	var jobs []Job
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("failed to parse jobs file %s: %w", path, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("jobs file %s has no jobs", path)
	}
	return jobs, nil
}

// requests converts jobs into bridge requests. File paths are resolved
// against baseDir.
func requests(jobs []Job, baseDir string) ([]bridge.Request, error) {
	reqs := make([]bridge.Request, len(jobs))
	for i, j := range jobs {
		if (j.File == "") == (j.Code == "") {
			return nil, fmt.Errorf("job %s: exactly one of file or code is required", j.label(i))
		}
		file := j.File
		if file != "" && !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		src, err := loadSource(file, j.Code)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.label(i), err)
		}
		reqs[i] = bridge.Request{
			Source:   src,
			Function: j.Function,
			Shape:    value.Shape(j.Shape),
			Mode:     bridge.Mode(strings.ToLower(j.Mode)),
			Args:     bridge.Args(j.Args),
		}
	}
	return reqs, nil
}

func runBatch(cmd *cobra.Command, path string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	jobs, err := LoadJobs(path)
	if err != nil {
		return err
	}
	reqs, err := requests(jobs, filepath.Dir(path))
	if err != nil {
		return err
	}

	limit := cc.Cfg.Concurrency
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		limit = n
	}

	results := cc.Bridge.CallEach(cmd.Context(), reqs, limit)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	if err := renderBatch(cc.Renderer, jobs, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	return nil
}

func renderBatch(r *output.Renderer, jobs []Job, results []bridge.Result) error {
	switch r.EffectiveMode() {
	case output.ModeJSON, output.ModeYAML:
		return r.Result(batchValue(jobs, results))
	}

	styles := r.Styles()
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"job", "status", "result"})
	for i, res := range results {
		if res.Err != nil {
			t.AppendRow(table.Row{jobs[i].label(i), styles.Error.Render("failed"), res.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{jobs[i].label(i), styles.Success.Render("ok"), output.Cell(res.Value)})
	}
	t.Render()
	return nil
}

// batchValue lays results out as a list of mappings for structured output.
func batchValue(jobs []Job, results []bridge.Result) value.Value {
	items := make([]value.Value, len(results))
	for i, res := range results {
		m := value.NewMap()
		m.Set("job", value.String(jobs[i].label(i)))
		m.Set("ok", value.Bool(res.Err == nil))
		if res.Err != nil {
			m.Set("error", value.String(res.Err.Error()))
		} else {
			v, err := value.FromGo(res.Value)
			if err != nil {
				v = value.String(fmt.Sprint(res.Value))
			}
			m.Set("result", v)
		}
		items[i] = value.FromMap(m)
	}
	return value.Seq(items...)
}
