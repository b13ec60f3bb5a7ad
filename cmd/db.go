package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/shopwatch/internal/utils"
	"github.com/sw33tLie/shopwatch/pkg/diff"
	"github.com/sw33tLie/shopwatch/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the shopwatch database",
}

// openExistingDB refuses to create a fresh database as a side effect of a read.
func openExistingDB(cmd *cobra.Command) (*storage.DB, error) {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	dbPath = utils.ResolveDBPath(dbPath)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", dbPath)
	}
	return storage.Open(dbPath)
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("dbpath")
		dbPath = utils.ResolveDBPath(dbPath)

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// dbStatsCmd represents the stats command
var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the stored snapshot and change log.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background(), storage.SnapshotSlot)
		if err != nil {
			return err
		}

		if stats.UpdatedAt.IsZero() {
			fmt.Println("No snapshot stored yet. Run 'shopwatch poll' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "SNAPSHOT\t%s\t\n", stats.Slot)
		fmt.Fprintf(w, "ITEMS\t%d\t\n", stats.ItemCount)
		fmt.Fprintf(w, "UPDATED\t%s\t\n", stats.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w, " \t \t")

		var total int
		for _, t := range []diff.ChangeType{diff.Added, diff.Updated, diff.Removed} {
			n := stats.Changes[string(t)]
			fmt.Fprintf(w, "%s\t%d\t\n", t, n)
			total += n
		}
		fmt.Fprintf(w, "TOTAL CHANGES\t%d\t\n", total)

		return w.Flush()
	},
}

// dbShowCmd prints the items of the stored snapshot.
var dbShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the items of the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, ok, err := db.GetCatalog(context.Background(), storage.SnapshotSlot)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No snapshot stored yet. Run 'shopwatch poll' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\t")
		for _, it := range catalog {
			stock := diff.Unlimited
			if it.Stock != nil {
				stock = strconv.Itoa(*it.Stock)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t\n", it.ID, it.Name, it.Price, stock)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(dbStatsCmd)
	dbCmd.AddCommand(dbShowCmd)
}
