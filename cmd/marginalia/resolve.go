package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phroun/marginalia"
)

var resolveFlags struct {
	doc      string
	comments string
	strict   bool
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve every comment in a comments file against a document",
	Long: `Resolve loads a document (HTML or plain text) and a YAML comments file,
relocates each comment's anchor in the document and prints where every comment
landed together with the margin indicators.`,
	RunE: runResolve,
}

// errOrphans is returned in --strict mode when any anchor could not be resolved.
var errOrphans = errors.New("orphaned comments")

func init() {
	resolveCmd.Flags().StringVar(&resolveFlags.doc, "doc", "", "document to resolve against (.html or text)")
	resolveCmd.Flags().StringVar(&resolveFlags.comments, "comments", "", "YAML comments file")
	resolveCmd.Flags().BoolVar(&resolveFlags.strict, "strict", false, "exit with an error when any comment is orphaned")
	_ = resolveCmd.MarkFlagRequired("doc")
	_ = resolveCmd.MarkFlagRequired("comments")
}

func runResolve(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(resolveFlags.doc)
	if err != nil {
		return err
	}
	defer doc.Close()

	comments, err := marginalia.LoadComments(resolveFlags.comments)
	if err != nil {
		return err
	}

	engine := marginalia.NewEngine(state.engineOptions(nil))
	defer engine.Stop()

	frame := engine.Render(doc, comments)
	printFrame(cmd.OutOrStdout(), comments, frame, engine.Color())

	state.logger.Info("resolved comments",
		"document", resolveFlags.doc,
		"comments", len(comments),
		"orphaned", len(frame.Orphaned))

	if resolveFlags.strict && len(frame.Orphaned) > 0 {
		return fmt.Errorf("%d of %d: %w", len(frame.Orphaned), len(comments), errOrphans)
	}
	return nil
}
