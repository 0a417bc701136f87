package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dailyfocus/internal/db"
	"github.com/dailyfocus/internal/progress"
	"github.com/dailyfocus/internal/service"
	"github.com/spf13/cobra"
)

var scanDate string

var scanDueCmd = &cobra.Command{
	Use:   "scan-due",
	Short: "Record reminders for habits that are due and unfinished",
	Long: `Run the same due-habit scan as POST /cron/due-habits without going through HTTP.

Examples:
  dailyfocus scan-due                    # scan today (UTC)
  dailyfocus scan-due --date 2024-01-08`,
	RunE: runScanDue,
}

func init() {
	scanDueCmd.Flags().StringVar(&scanDate, "date", "", "Day to scan in YYYY-MM-DD (defaults to today, UTC)")
}

func runScanDue(cmd *cobra.Command, args []string) error {
	if _, err := bootstrap(); err != nil {
		return err
	}

	day := progress.DayOf(time.Now().UTC())
	if scanDate != "" {
		parsed, err := progress.ParseDate(scanDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", scanDate, err)
		}
		day = parsed
	}

	report, err := service.NewNotificationService(db.DB, nil).ScanDue(cmd.Context(), day)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
