package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/vapor/internal/engine"
	"github.com/lazypower/vapor/internal/expiry"
	"github.com/lazypower/vapor/internal/store"
)

// --- add ---

var addAudio string

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Capture a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		n, err := c.Add(strings.Join(args, " "), addAudio)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	},
}

// --- ls / trash ---

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List active notes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		notes, err := c.Notes()
		if err != nil {
			return err
		}
		printNotes(cmd.OutOrStdout(), notes, time.Now())
		return nil
	},
}

var trashCmd = &cobra.Command{
	Use:   "trash",
	Short: "List recently deleted notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		trash, err := c.Trash()
		if err != nil {
			return err
		}
		printTrash(cmd.OutOrStdout(), trash, time.Now())
		return nil
	},
}

// remaining formats the time left before stamp expires.
func remaining(stamp, now time.Time) string {
	left := expiry.TTL - now.Sub(stamp)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%dm", int(left.Round(time.Minute).Minutes()))
}

func printNotes(w io.Writer, notes []store.Note, now time.Time) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}
	for _, n := range notes {
		tag := ""
		if n.Tag != store.TagNone {
			tag = " [" + string(n.Tag) + "]"
		}
		audio := ""
		if n.AudioData != "" {
			audio = " (audio)"
		}
		fmt.Fprintf(w, "%s  %5s%s%s  %s\n", n.ID, remaining(n.CreatedAt, now), tag, audio, n.Text)
	}
}

func printTrash(w io.Writer, trash []store.TrashedNote, now time.Time) {
	if len(trash) == 0 {
		fmt.Fprintln(w, "No deleted notes.")
		return
	}
	for _, n := range trash {
		fmt.Fprintf(w, "%s  %5s  %s\n", n.ID, remaining(n.DeletedAt, now), n.Text)
	}
}

// --- edit / tag ---

var editCmd = &cobra.Command{
	Use:   "edit [id] [text]",
	Short: "Replace a note's text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.Update(args[0], strings.Join(args[1:], " "))
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag [id] [idea|task|personal|work|none]",
	Short: "Set or clear a note's tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[1]
		if name == "none" {
			name = ""
		}
		tag, err := store.ParseTag(name)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.SetTag(args[0], tag)
	},
}

// --- rm / clear / undo ---

// printUndo writes the reversal as a single JSON argument for `vapor undo`.
func printUndo(w io.Writer, rev engine.Reversal) {
	b, err := json.Marshal(rev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "undo with: vapor undo '%s'\n", b)
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Move a note to trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rev, ok, err := c.Delete(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not found\n", args[0])
			return nil
		}
		printUndo(cmd.OutOrStdout(), rev)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Move every note to trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rev, ok, err := c.ClearAll()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no notes to clear")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "moved %d notes to trash\n", len(rev.Notes))
		printUndo(cmd.OutOrStdout(), rev)
		return nil
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo [reversal-json]",
	Short: "Reverse an rm or clear",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rev engine.Reversal
		if err := json.Unmarshal([]byte(args[0]), &rev); err != nil {
			return fmt.Errorf("parse reversal: %w", err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ok, err := c.Undo(rev)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to undo")
		}
		return nil
	},
}

// --- trash management ---

var restoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Move a note from trash back to the active list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ok, err := c.RestoreFromTrash(args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: not in trash\n", args[0])
		}
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [id]",
	Short: "Permanently delete a note from trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		_, err = c.PermanentDelete(args[0])
		return err
	},
}

var emptyTrashCmd = &cobra.Command{
	Use:   "empty-trash",
	Short: "Permanently delete everything in trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.ClearTrash()
	},
}

func init() {
	addCmd.Flags().StringVar(&addAudio, "audio", "", "Attach audio as a base64 data URI")
}
