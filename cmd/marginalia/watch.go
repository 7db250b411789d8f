package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/phroun/marginalia"
)

var watchFlags struct {
	doc      string
	comments string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-resolve comments whenever the document or comments file changes",
	Long: `Watch renders once, then watches the document and the comments file.
Bursts of file events are collapsed into one render per frame interval.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.doc, "doc", "", "document to resolve against (.html or text)")
	watchCmd.Flags().StringVar(&watchFlags.comments, "comments", "", "YAML comments file")
	_ = watchCmd.MarkFlagRequired("doc")
	_ = watchCmd.MarkFlagRequired("comments")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := marginalia.NewEngine(state.engineOptions(marginalia.TimerScheduler{}))
	queue := &pendingRender{engine: engine}
	defer queue.stop()

	out := cmd.OutOrStdout()
	render := func() {
		doc, err := loadDocument(watchFlags.doc)
		if err != nil {
			state.logger.Warn("load document failed", "path", watchFlags.doc, "error", err)
			return
		}
		comments, err := marginalia.LoadComments(watchFlags.comments)
		if err != nil {
			state.logger.Warn("load comments failed", "path", watchFlags.comments, "error", err)
			doc.Close()
			return
		}
		queue.submit(doc, comments, func(frame marginalia.Frame) {
			fmt.Fprintln(out, styles.Muted.Render("--- "+filepath.Base(watchFlags.doc)+" ---"))
			printFrame(out, comments, frame, engine.Color())
		})
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories so editors that replace files on save keep being seen.
	targets := map[string]bool{}
	for _, path := range []string{watchFlags.doc, watchFlags.comments} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		targets[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	render()
	return watchLoop(ctx, watcher, targets, render)
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, targets map[string]bool, render func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[filepath.Clean(ev.Name)] {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				state.logger.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
				render()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			state.logger.Warn("watch error", "error", err)
		}
	}
}

// pendingRender owns the document of the queued render. A document whose render
// is superseded before it runs is closed when its replacement is submitted.
type pendingRender struct {
	engine *marginalia.Engine

	mu  sync.Mutex
	doc *marginalia.Document
}

func (p *pendingRender) submit(doc *marginalia.Document, comments []marginalia.Comment, deliver func(marginalia.Frame)) {
	p.mu.Lock()
	if p.doc != nil {
		p.doc.Close()
	}
	p.doc = doc
	p.mu.Unlock()

	p.engine.RequestRender(doc, comments, func(frame marginalia.Frame) {
		p.mu.Lock()
		if p.doc == doc {
			p.doc = nil
		}
		p.mu.Unlock()

		defer doc.Close()
		deliver(frame)
	})
}

func (p *pendingRender) stop() {
	p.engine.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		p.doc.Close()
		p.doc = nil
	}
}
