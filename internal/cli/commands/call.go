package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/rbridge/internal/starlark"
	"github.com/leapstack-labs/rbridge/pkg/bridge"
	"github.com/leapstack-labs/rbridge/pkg/value"
)

// CallOptions holds options for the call command.
type CallOptions struct {
	File     string
	Code     string
	Function string
	Shape    string
	Args     []string
	ArgsFile string
	Watch    bool
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	opts := &CallOptions{}
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Call a function defined in R source",
		Long: `Call an R function and print its result.

The source comes from a file (--file) or inline (--code). Arguments are
passed by name with --arg name=value, where value is a literal such as 5,
2.5, 'text', TRUE, NULL, [1, 2, 3] or {'k': 1}. Values that do not parse are
passed as strings. --args-file reads a YAML mapping of arguments; --arg
entries override it.

The result is coerced to --shape (auto by default) and printed according
to --output.`,
		Example: `  # Add two numbers
  rbridge call -f add.R -F add -s float --arg x=5 --arg y=3

  # Inline source, R console output instead of JSON
  rbridge call --code 'sq <- function(x) x^2' -F sq --arg x=[1,2,3] --mode text -s list

  # Re-run whenever the source file changes
  rbridge call -f model.R -F fit --args-file params.yaml --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCall(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "R source file defining the function")
	cmd.Flags().StringVar(&opts.Code, "code", "", "Inline R source defining the function")
	cmd.Flags().StringVarP(&opts.Function, "function", "F", "", "Name of the function to call")
	cmd.Flags().StringVarP(&opts.Shape, "shape", "s", "", "Result shape: "+value.JoinShapes(value.AllShapes))
	cmd.Flags().StringArrayVar(&opts.Args, "arg", nil, "Argument as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.ArgsFile, "args-file", "", "YAML file with a mapping of arguments")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-run when the source file changes")

	cmd.MarkFlagsMutuallyExclusive("file", "code")
	cmd.MarkFlagsOneRequired("file", "code")
	_ = cmd.MarkFlagRequired("function")

	_ = cmd.RegisterFlagCompletionFunc("shape", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(value.AllShapes))
		for i, s := range value.AllShapes {
			names[i] = string(s)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runCall(cmd *cobra.Command, opts *CallOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	args, err := buildArgs(opts.ArgsFile, opts.Args)
	if err != nil {
		return err
	}

	if opts.Watch {
		return watchCall(cmd.Context(), cc, opts, args)
	}
	return callOnce(cmd.Context(), cc, opts, args)
}

func callOnce(ctx context.Context, cc *CommandContext, opts *CallOptions, args bridge.Args) error {
	src, err := loadSource(opts.File, opts.Code)
	if err != nil {
		return err
	}

	res, err := cc.Bridge.Call(ctx, bridge.Request{
		Source:   src,
		Function: opts.Function,
		Shape:    value.Shape(opts.Shape),
		Args:     args,
	})
	if err != nil {
		return err
	}
	return cc.Renderer.Result(res)
}

// loadSource returns inline code, or the content of file.
func loadSource(file, code string) (string, error) {
	if file == "" {
		return code, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}
	return string(data), nil
}

// buildArgs merges the mapping in argsFile with name=value pairs. Pairs win
// over the file.
func buildArgs(argsFile string, pairs []string) (bridge.Args, error) {
	args := bridge.Args{}

	if argsFile != "" {
		data, err := os.ReadFile(argsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read args file: %w", err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse args file %s: %w", argsFile, err)
		}
		for k, v := range raw {
			args[k] = v
		}
	}

	for _, pair := range pairs {
		name, v, err := starlark.ParseArg(pair)
		if err != nil {
			return nil, err
		}
		args[name] = v
	}
	return args, nil
}

// watchCall runs the call, then again on every change to the source file
// until ctx is done. Failed runs are reported and do not stop the loop.
func watchCall(ctx context.Context, cc *CommandContext, opts *CallOptions, args bridge.Args) error {
	if opts.File == "" {
		return errors.New("--watch requires --file")
	}
	path, err := filepath.Abs(opts.File)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Editors replace files on save, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.File, err)
	}

	run := func() {
		if err := callOnce(ctx, cc, opts, args); err != nil {
			cc.Renderer.Error(err.Error())
		}
	}
	run()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cc.Logger.Info("source changed, re-running", slog.String("file", opts.File))
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
