package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/storage"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage stored Data API keys",
	Long: `Manage the Data API keys kept in the credentials file. Keys are used in
order; when one runs out of quota the next becomes active.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := storedPool()
		if err != nil {
			return err
		}
		if pool.Size() == 0 {
			fmt.Fprintln(os.Stdout, "No keys stored.")
			return nil
		}
		active, _ := pool.Active()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tKEY\tACTIVE")
		for i, k := range pool.Keys() {
			mark := ""
			if i == active {
				mark = good("*")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, credpool.Mask(k), mark)
		}
		tw.Flush()
		if len(cfg.APIKeys) > 0 {
			fmt.Fprintf(os.Stderr, "%d more from config or environment\n", len(cfg.APIKeys))
		}
		return nil
	},
}

var keysAddCmd = &cobra.Command{
	Use:   "add <key>...",
	Short: "Store one or more keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := storedPool()
		if err != nil {
			return err
		}
		added := 0
		for _, k := range args {
			if pool.Add(k) {
				added++
			} else {
				fmt.Fprintf(os.Stderr, "%s %s already stored or blank\n", warn("skipped:"), credpool.Mask(k))
			}
		}
		if added == 0 {
			return nil
		}
		fmt.Fprintf(os.Stdout, "Added %d key(s); %d stored\n", added, pool.Size())
		return savePool(pool)
	},
}

var keysRemoveCmd = &cobra.Command{
	Use:   "remove <number>",
	Short: "Remove a stored key by its list number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeyIndex(args[0], func(pool *credpool.Pool, i int) error {
			return pool.Remove(i)
		})
	},
}

var keysUseCmd = &cobra.Command{
	Use:   "use <number>",
	Short: "Make a stored key active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeyIndex(args[0], func(pool *credpool.Pool, i int) error {
			return pool.Select(i)
		})
	},
}

func init() {
	keysCmd.AddCommand(keysListCmd, keysAddCmd, keysRemoveCmd, keysUseCmd)
	rootCmd.AddCommand(keysCmd)
}

// storedPool holds only the keys from the credentials file, so saving it
// never persists keys that came from the environment.
func storedPool() (*credpool.Pool, error) {
	creds, err := storage.LoadCredentials(cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}
	pool := credpool.New(creds.APIKeys, credpool.Config{})
	if creds.CurrentKey > 0 {
		if err := pool.Select(creds.CurrentKey); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func savePool(pool *credpool.Pool) error {
	active, _ := pool.Active()
	if active < 0 {
		active = 0
	}
	return storage.SaveCredentials(cfg.CredentialsPath, &storage.Credentials{
		APIKeys:    pool.Keys(),
		CurrentKey: active,
	})
}

func withKeyIndex(arg string, fn func(*credpool.Pool, int) error) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid key number %q", arg)
	}
	pool, err := storedPool()
	if err != nil {
		return err
	}
	if err := fn(pool, n-1); err != nil {
		return err
	}
	if err := savePool(pool); err != nil {
		return err
	}
	_, key := pool.Active()
	fmt.Fprintf(os.Stdout, "%d key(s) stored; active %s\n", pool.Size(), credpool.Mask(key))
	return nil
}
