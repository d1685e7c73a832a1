package commands

import (
	"github.com/spf13/cobra"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a seeded rnorm(1) to check the bridge end to end",
		Long: `Run a built-in R function that draws one normal random number with a
fixed seed and print it as a float. The value is the same on every machine
with the same R version.`,
		Example: `  rbridge demo
  rbridge demo --mode text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := cc.Bridge.Demo(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Renderer.Result(f)
		},
	}
}
