package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kiliankoe/firstframe/internal/rounds"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	json    bool
	verbose bool
}

func newCmd(stdin io.Reader) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "roundcheck [file]",
		Short: "Check a quiz round file and list the rounds it yields.",
		Long: "Parses a round file (header with title and link, optional level, start and image)\n" +
			"the same way the server does. Reads stdin when no file or \"-\" is given.",
		Args:    cobra.MaximumNArgs(1),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(stdin, args)
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), raw, opts)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.BoolVarP(&opts.json, "json", "j", false, "print the parse result as JSON")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "list skipped rows and media URLs")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("roundcheck {{.Version}}\n")
	cmd.SilenceErrors = false
	cmd.SilenceUsage = true
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func run(out, errOut io.Writer, raw string, opts *options) error {
	res, err := rounds.ParseReport(raw)
	if err != nil {
		return err
	}

	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tVIDEO\tLEVEL\tSTART\tTITLE")
		for _, it := range res.Items {
			level := it.Difficulty
			if level == "" {
				level = "-"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", it.ID, it.VideoRef, level, it.StartOffsetSeconds, it.Title)
			if opts.verbose {
				fmt.Fprintf(tw, "\t\t\t\thint %s\n", it.HintImageRef)
				fmt.Fprintf(tw, "\t\t\t\tplay %s\n", rounds.EmbedURL(it.VideoRef, it.StartOffsetSeconds, ""))
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d round(s), %d row(s) skipped\n", len(res.Items), len(res.Skipped))
	}

	if opts.verbose {
		for _, s := range res.Skipped {
			fmt.Fprintf(errOut, "line %d skipped: %s\n", s.Line+1, s.Reason)
		}
	}

	if len(res.Items) == 0 {
		return rounds.ErrNoValidRows
	}
	return nil
}
