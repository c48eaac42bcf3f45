package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// --- export command ---

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as a backup file",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := eng.Export()
	if err != nil {
		return err
	}

	if exportOut == "" || exportOut == "-" {
		os.Stdout.Write(data)
		return nil
	}
	if err := os.WriteFile(exportOut, data, 0644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", exportOut)
	return nil
}

// --- import command ---

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all data with a backup file",
	Long:  "Validates the backup and replaces the current data wholesale. This is destructive; export first if you want a way back.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if !importYes {
		return fmt.Errorf("import replaces all current data; re-run with --yes")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := eng.Import(data); err != nil {
		return err
	}

	stats := eng.Stats()
	fmt.Fprintf(os.Stderr, "Imported %d active friends, %d meetings\n", stats.ActiveFriends, stats.TotalMeetings)
	return nil
}

// --- reset command ---

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all data and start over",
	RunE:  runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset erases everything; re-run with --yes")
	}

	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	eng.Reset()
	fmt.Fprintln(os.Stderr, "All data erased.")
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default stdout)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Skip the confirmation")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation")
}
