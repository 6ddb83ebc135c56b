package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "natc [file]",
	Short: "natc — compiler for a metaprogrammed, AOT-compiled-to-C language",
	Long: `natc compiles programs whose source form resembles a dynamic
scripting language but whose semantics are fully type-checked and
ahead-of-time compiled to portable C.

It supports first-class preprocessing: fragments of code embedded in
the source execute during analysis, can introspect partially-analyzed
symbols and types, and can inject new code back into the program
before the rest of the file is analyzed.`,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	RunE:         runPipeline,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		if strings.Contains(err.Error(), "unknown flag") || strings.Contains(err.Error(), "unknown shorthand flag") {
			return fmt.Errorf("unknown option")
		}
		return err
	})

	registerFlags(rootCmd)
}
