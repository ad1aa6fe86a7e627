package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/vapor/internal/client"
	"github.com/lazypower/vapor/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vapor",
	Short: "Notes that evaporate after an hour",
	Long:  "Vapor keeps short-lived captures for one hour. Deleted notes sit in trash for another hour before they are gone for good.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if h := hint(err); h != "" {
		fmt.Fprintln(os.Stderr, h)
	}
	return err
}

// hint suggests a fix for errors whose cause is usually configuration.
func hint(err error) string {
	if errors.Is(err, client.ErrNotFound) {
		return "hint: the server does not serve this route; check server.host and server.port (or $VAPOR_URL) point at a vapor server of the same version"
	}
	return ""
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.vapor/config.yaml, or $VAPOR_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(emptyTrashCmd)
}

// loadConfig resolves the config file from --config, $VAPOR_CONFIG or the
// default location.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("VAPOR_CONFIG")
	}
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Default(), err
		}
	}
	return config.Load(path)
}
