package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/app"
	"github.com/warp/overtime-engine/attendance"
	"github.com/warp/overtime-engine/calendar"
	"github.com/warp/overtime-engine/export"
	"github.com/warp/overtime-engine/layout"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/parser"
	"github.com/warp/overtime-engine/review"
)

// =============================================================================
// CONVERT
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert <in.txt>",
	Short: "Convert a TXT attendance dump to CSV",
	Long:  `Convert a fixed-width attendance dump into the 7-column CSV accepted by upload.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(args[0])
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".csv"
		}
		if err := writeFile(out, func(w io.Writer) error { return export.WriteCSV(w, records) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(records), out)
		return nil
	},
}

// =============================================================================
// REPORT
// =============================================================================

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Print computed overtime per attendance row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readRecords(args[0])
		if err != nil {
			return err
		}
		holidays, _ := cmd.Flags().GetStringSlice("holiday")
		all, _ := cmd.Flags().GetBool("all")
		name, _ := cmd.Flags().GetString("name")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		filter, err := review.ParseFilter(name, from, to)
		if err != nil {
			return err
		}

		reports := filter.Apply(computeReports(records, holidays))
		if !all {
			reports = attendance.Filter(reports, func(r attendance.Report) bool {
				return r.OvertimeHours.GreaterThanOrEqual(review.MinPreviewHours)
			})
		}
		return printReports(cmd.OutOrStdout(), reports)
	},
}

// computeReports computes every record, treating the given dates as
// national holidays.
func computeReports(records []attendance.Record, holidays []string) []attendance.Report {
	flagged := make(map[string]bool, len(holidays))
	for _, d := range holidays {
		flagged[d] = true
	}
	reports := overtime.ComputeAll(records)
	for i, r := range reports {
		if flagged[r.Date] {
			reports[i] = overtime.Recompute(r, true)
		}
	}
	return reports
}

func printReports(w io.Writer, reports []attendance.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "員工\t日期\t考勤別\t上班\t下班\t時間\t時數\t誤餐費")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.EmployeeID, r.Name,
			calendar.FormatDisplayDate(r.Date),
			r.AttendanceType,
			r.ClockIn, r.ClockOut,
			r.OvertimeRange,
			r.HoursText(),
			r.MealAllowance)
	}
	hours, meal := attendance.Totals(reports)
	fmt.Fprintf(tw, "合計\t\t\t\t\t\t%s\t%d\n", hours.StringFixed(2), meal)
	return tw.Flush()
}

// =============================================================================
// PAGINATE
// =============================================================================

var paginateCmd = &cobra.Command{
	Use:   "paginate <file>",
	Short: "Show how the selected rows break into printed pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, b, err := loadBatch(ctx, cmd, args[0])
		if err != nil {
			return err
		}

		weekday, restDay := overtime.SplitSections(b.SelectedReports())
		doc, err := compose(b, weekday, restDay)
		if err != nil {
			return err
		}
		printPages(cmd.OutOrStdout(), doc)
		return nil
	},
}

func printPages(w io.Writer, doc export.Document) {
	for _, p := range doc.Sections.All() {
		first, last := p.Rows[0].Date, p.Rows[len(p.Rows)-1].Date
		fmt.Fprintf(w, "%s %d/%d: %d rows (%s - %s)\n",
			p.Section, p.PageNumber, p.TotalPages, len(p.Rows),
			calendar.FormatDisplayDate(first), calendar.FormatDisplayDate(last))
	}
}

// =============================================================================
// EXPORT
// =============================================================================

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the overtime application form",
	Long: `Write the overtime application form for an attendance file.

Reasons are given as date=text for every row on that date, or
employeeId@date=text for a single row:

  overtimectl export ATTEND.TXT --location 台北總部 \
      --reason 1141001=系統上線 --reason 100057@1141004=機房搬遷 \
      --holiday 1141010 --format pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}

		svc, b, err := loadBatch(ctx, cmd, args[0])
		if err != nil {
			return err
		}
		location, _ := cmd.Flags().GetString("location")
		remarks, _ := cmd.Flags().GetString("remarks")
		if _, err := svc.SetFormFields(ctx, b.ID, location, remarks); err != nil {
			return err
		}

		b, weekday, restDay, err := svc.Prepare(ctx, b.ID)
		if err != nil {
			return err
		}
		doc, err := compose(b, weekday, restDay)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = doc.FileName(format)
		}
		err = writeFile(out, func(w io.Writer) error {
			return export.Write(w, format, doc, export.Options{FontPath: cfg.Report.FontPath})
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		printPages(cmd.OutOrStdout(), doc)
		return nil
	},
}

// =============================================================================
// SERVE
// =============================================================================

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the review HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		if db, _ := cmd.Flags().GetString("db"); db != "" {
			cfg.Database.Path = db
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cfg, logger)
	},
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "Output CSV path (default: input with .csv)")

	reportCmd.Flags().StringSlice("holiday", nil, "National holiday dates, e.g. 1141010")
	reportCmd.Flags().Bool("all", false, "Include rows under the review threshold")
	reportCmd.Flags().String("name", "", "Only rows whose name contains this text")
	reportCmd.Flags().String("from", "", "Only rows on or after this date, e.g. 1141001")
	reportCmd.Flags().String("to", "", "Only rows on or before this date")

	for _, c := range []*cobra.Command{paginateCmd, exportCmd} {
		c.Flags().StringSlice("holiday", nil, "National holiday dates, e.g. 1141010")
		c.Flags().StringArray("reason", nil, "Overtime reason, date=text or employeeId@date=text")
		c.Flags().StringSlice("deselect", nil, "Rows to leave out, date or employeeId@date")
	}

	exportCmd.Flags().StringP("format", "f", "xlsx", "Output format: xlsx, pdf, html or csv")
	exportCmd.Flags().String("location", "", "Work location printed in the header")
	exportCmd.Flags().String("remarks", "", "Remarks printed in the header")
	exportCmd.Flags().StringP("output", "o", "", "Output path (default: form file name)")

	serveCmd.Flags().Int("port", 0, "HTTP server port, overrides config")
	serveCmd.Flags().String("db", "", "SQLite database path, overrides config")
}

// =============================================================================
// HELPERS
// =============================================================================

func readRecords(path string) ([]attendance.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parser.Parse(filepath.Base(path), f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// loadBatch imports path into an in-memory review batch and applies the
// --holiday, --reason and --deselect flags.
func loadBatch(ctx context.Context, cmd *cobra.Command, path string) (*review.Service, *review.Batch, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, nil, err
	}

	svc := review.NewService(review.NewMemory())
	svc.Logger = logger
	b, err := svc.Import(ctx, filepath.Base(path), records)
	if err != nil {
		return nil, nil, err
	}

	holidays, _ := cmd.Flags().GetStringSlice("holiday")
	reasons, _ := cmd.Flags().GetStringArray("reason")
	deselect, _ := cmd.Flags().GetStringSlice("deselect")

	for _, date := range holidays {
		if b, err = svc.SetHoliday(ctx, b.ID, date, true); err != nil {
			return nil, nil, fmt.Errorf("--holiday %s: %w", date, err)
		}
	}
	for _, arg := range reasons {
		target, text, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("--reason %q: expected date=text", arg)
		}
		for _, k := range matchKeys(b, target) {
			if b, err = svc.SetReason(ctx, b.ID, k, text); err != nil {
				return nil, nil, err
			}
		}
	}
	for _, target := range deselect {
		for _, k := range matchKeys(b, target) {
			if b, err = svc.SetSelected(ctx, b.ID, k, false); err != nil {
				return nil, nil, err
			}
		}
	}
	return svc, b, nil
}

// matchKeys resolves "date" or "employeeId@date" to row keys. An unknown
// target yields a key that the service rejects as not found.
func matchKeys(b *review.Batch, target string) []attendance.Key {
	if emp, date, ok := strings.Cut(target, "@"); ok {
		return []attendance.Key{{EmployeeID: emp, Date: date}}
	}
	var keys []attendance.Key
	for _, r := range b.Reports {
		if r.Date == target {
			keys = append(keys, r.Key())
		}
	}
	if len(keys) == 0 {
		return []attendance.Key{{Date: target}}
	}
	return keys
}

func compose(b *review.Batch, weekday, restDay []attendance.Report) (export.Document, error) {
	form := layout.NewForm(cfg.Report.CompanyName, cfg.Report.Title, weekday, restDay, b.WorkLocation, b.Remarks)
	p := layout.NewPaginator(layout.NewFlowEngine(layout.DefaultContentWidth, cfg.Report.FontPath), cfg.Report.MaxPageHeight)
	p.Logger = logger
	return export.Compose(p, form, weekday, restDay)
}
