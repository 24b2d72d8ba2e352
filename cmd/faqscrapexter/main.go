// cmd/faqscrapexter/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/FAQScrapexter/internal/config"
	"github.com/valpere/FAQScrapexter/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		verbose, _ := root.PersistentFlags().GetBool("verbose")
		fmt.Fprint(os.Stderr, utils.FormatForCLI(err, verbose))
		os.Exit(utils.ExitCode(err))
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "faqscrapexter",
		Short:         "Extract question and answer pairs from accordion FAQ pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolP("verbose", "v", false, "verbose output and debug logging")

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newTemplateCmd(),
		newVersionCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run an extraction job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			opts.verbose, _ = cmd.Flags().GetBool("verbose")
			opts.maxItemsSet = cmd.Flags().Changed("max-items")
			if err := opts.apply(cfg); err != nil {
				return err
			}

			summary, err := runJob(cmd.Context(), cfg, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Extracted %d FAQ record(s) (run %s) to %s\n",
				summary.Records, summary.RunID, summary.Target)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.htmlFile, "html", "", "read the page from a saved HTML file instead of a browser")
	cmd.Flags().IntVar(&opts.maxItems, "max-items", 0, "stop after this many records (0 = unlimited)")
	cmd.Flags().StringVarP(&opts.outputFile, "output", "o", "", "override output file (json: - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "override output format")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a job configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, w := range cfg.Check().Warnings {
				fmt.Fprintf(out, "⚠ %s\n", w)
			}

			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				fmt.Fprintf(out, "Configuration details:\n")
				fmt.Fprintf(out, "  Name: %s\n", cfg.Name)
				fmt.Fprintf(out, "  URL: %s\n", cfg.URL)
				fmt.Fprintf(out, "  Control selectors: %d\n", len(cfg.ControlSelectors))
				fmt.Fprintf(out, "  Output format: %s\n", cfg.Output.Format)
			}

			fmt.Fprintf(out, "✓ Configuration file '%s' is valid\n", args[0])
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print a starter job configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GenerateTemplate(kind)
			return config.SaveToWriter(&cfg, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "basic", "template kind: basic, details or aria")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FAQScrapexter %s\n", version)
			fmt.Fprintf(out, "Build time: %s\n", buildTime)
			fmt.Fprintf(out, "Git commit: %s\n", gitCommit)
		},
	}
}
