package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mwhite/orbit/internal/engine"
	"github.com/mwhite/orbit/internal/model"
	"github.com/mwhite/orbit/internal/store"
	"github.com/spf13/cobra"
)

// openEngine opens the database and builds an engine for CLI commands.
// The caller closes the returned DB.
func openEngine() (*engine.Engine, *store.DB, error) {
	dbPath := os.Getenv("ORBIT_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	eng, err := engine.New(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return eng, db, nil
}

// resolveFriend matches an id or a (case-insensitive) name prefix against
// the roster. Names are friendlier on the command line than uuids.
func resolveFriend(eng *engine.Engine, arg string) (engine.FriendView, error) {
	friends := eng.Friends(true)
	for _, f := range friends {
		if f.ID == arg {
			return f, nil
		}
	}
	var matches []engine.FriendView
	for _, f := range friends {
		if strings.HasPrefix(strings.ToLower(f.Name), strings.ToLower(arg)) {
			matches = append(matches, f)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return engine.FriendView{}, fmt.Errorf("no friend matching %q", arg)
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return engine.FriendView{}, fmt.Errorf("%q is ambiguous: %s", arg, strings.Join(names, ", "))
	}
}

// --- add command ---

var (
	addTier    string
	addCadence int
)

var addCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a friend to track",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	name := strings.Join(args, " ")
	f, err := eng.AddFriend(name, model.Tier(addTier), addCadence)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s (%s, every %d days)\n", f.Name, f.Tier, f.CadenceDays)
	return nil
}

// --- list command ---

var listArchived bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List friends with status and health",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	friends := eng.Friends(listArchived)
	if len(friends) == 0 {
		fmt.Println("No friends tracked yet. Try: orbit add \"Sam\" --every 14")
		return nil
	}

	for _, f := range friends {
		due := fmt.Sprintf("due in %dd", f.DaysUntilDue)
		if f.DaysUntilDue < 0 {
			due = fmt.Sprintf("overdue %dd", -f.DaysUntilDue)
		}
		last := "never met"
		if f.LastMeeting != nil {
			last = fmt.Sprintf("%dd ago", f.Elapsed.Days)
		}
		archived := ""
		if f.Archived {
			archived = " [archived]"
		}
		fmt.Printf("%-20s %-11s %s, %s | health %d | streak %d (x%.1f)%s\n",
			f.Name, f.Status, last, due, f.HealthScore, f.StreakCount, f.Multiplier, archived)
	}

	stats := eng.Stats()
	fmt.Printf("\n%d active, %d overdue, %d meetings logged\n",
		stats.ActiveFriends, stats.Overdue, stats.TotalMeetings)
	return nil
}

// --- log command ---

var logNote string

var logCmd = &cobra.Command{
	Use:   "log [friend]",
	Short: "Log a meeting with a friend",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	fv, err := resolveFriend(eng, strings.Join(args, " "))
	if err != nil {
		return err
	}

	f, _, err := eng.LogMeeting(fv.ID, logNote)
	if err != nil {
		return err
	}
	fmt.Printf("Logged meeting with %s — streak %d, multiplier x%.1f\n", f.Name, f.StreakCount, f.Multiplier)
	return nil
}

// --- archive command ---

var archiveRestore bool

var archiveCmd = &cobra.Command{
	Use:   "archive [friend]",
	Short: "Archive a friend (or restore with --restore)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArchive,
}

func runArchive(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	fv, err := resolveFriend(eng, strings.Join(args, " "))
	if err != nil {
		return err
	}

	f, err := eng.SetArchived(fv.ID, !archiveRestore)
	if err != nil {
		return err
	}
	if f.Archived {
		fmt.Printf("Archived %s\n", f.Name)
	} else {
		fmt.Printf("Restored %s\n", f.Name)
	}
	return nil
}

// --- delete command ---

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [friend]",
	Short: "Delete a friend and their meeting history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	eng, db, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	fv, err := resolveFriend(eng, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if !deleteYes {
		return fmt.Errorf("deleting %s removes %d meetings; re-run with --yes", fv.Name, fv.TotalMeetings)
	}

	if err := eng.DeleteFriend(fv.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", fv.Name)
	return nil
}

func init() {
	addCmd.Flags().StringVarP(&addTier, "tier", "t", "casual", "Relationship tier: close or casual")
	addCmd.Flags().IntVarP(&addCadence, "every", "e", 14, "Target days between contacts")

	listCmd.Flags().BoolVarP(&listArchived, "archived", "a", false, "Include archived friends")

	logCmd.Flags().StringVarP(&logNote, "note", "m", "", "Optional note (max 200 chars)")

	archiveCmd.Flags().BoolVar(&archiveRestore, "restore", false, "Restore instead of archive")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation")
}
