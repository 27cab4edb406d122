package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/softjail/internal/core"
)

func newImportCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import KIND FILE",
		Short: "Import a payload file; FILE may be - for stdin",
		Long: "Import a JSON or XML payload. KIND is one of: " + kindKeys() + ".\n" +
			"Valid records are saved and one report line is printed per input record.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			if _, ok := core.Get(kind); !ok {
				return withCode(exitUsage, fmt.Errorf("%w: %s", core.ErrUnknownKind, kind))
			}

			payload, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return withCode(exitUsage, err)
			}

			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Import(cmd.Context(), kind, payload)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(a.stdout, res)
			}
			if res.Report != "" {
				fmt.Fprintln(a.stdout, res.Report)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the import result as JSON")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export prisoner records",
	}

	var (
		ids    string
		format string
		out    string
	)
	prisoners := &cobra.Command{
		Use:   "prisoners",
		Short: "Export prisoners by id as JSON or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := core.ParseIDs(ids)
			if err != nil {
				return withCode(exitUsage, err)
			}
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			switch format {
			case "json":
				s, err := svc.ExportByIDs(cmd.Context(), parsed)
				if err != nil {
					return err
				}
				return writeOutput(a.stdout, out, []byte(s+"\n"))
			case "xlsx":
				if out == "" {
					return withCode(exitUsage, fmt.Errorf("--out is required for xlsx"))
				}
				b, err := svc.ExportByIDsXLSX(cmd.Context(), parsed)
				if err != nil {
					return err
				}
				return writeOutput(a.stdout, out, b)
			default:
				return withCode(exitUsage, fmt.Errorf("unsupported --format: %s", format))
			}
		},
	}
	prisoners.Flags().StringVar(&ids, "ids", "", "Comma-separated prisoner ids (required)")
	prisoners.Flags().StringVar(&format, "format", "json", "Output format: json or xlsx")
	prisoners.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	_ = prisoners.MarkFlagRequired("ids")

	var names string
	inbox := &cobra.Command{
		Use:   "inbox",
		Short: "Export the inbox of prisoners by full name as XML",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			s, err := svc.ExportInbox(cmd.Context(), names)
			if err != nil {
				return err
			}
			return writeOutput(a.stdout, out, []byte(s+"\n"))
		},
	}
	inbox.Flags().StringVar(&names, "names", "", "Comma-separated full names (required)")
	inbox.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	_ = inbox.MarkFlagRequired("names")

	cmd.AddCommand(prisoners, inbox)
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "history KIND",
		Short: "List archived import runs, or print one run's report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			if runID != "" {
				report, err := svc.ArchivedReport(cmd.Context(), args[0], runID)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, report)
				return nil
			}

			runs, err := svc.ImportHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tREPORT BYTES")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", r.RunID, r.CreatedAt.UTC().Format(time.RFC3339), r.ReportSize)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Print the report of this run")
	return cmd
}

func newKindsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List import kinds in import order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tFORMAT\tDESCRIPTION")
			for _, k := range core.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Key, k.Format, k.Description)
			}
			return tw.Flush()
		},
	}
}

func kindKeys() string {
	kinds := core.All()
	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = k.Key
	}
	return strings.Join(keys, ", ")
}

// readInput reads the payload from path, or from stdin when path is "-".
// The service enforces the size limit.
func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		return core.ReadPayload(stdin, 0)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return core.ReadPayload(f, 0)
}

func writeOutput(stdout io.Writer, path string, b []byte) error {
	if path == "" {
		_, err := stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
