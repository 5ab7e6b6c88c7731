// Package watch rebuilds on file changes using an incremental esbuild
// context, so the CSS Modules build cache persists across rebuilds.
package watch

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/fsnotify/fsnotify"

	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/bundle"
	"github.com/ulyssesdotcodes/esbuild-css-modules-plugin/common"
)

// Args holds the arguments for the watch subcommand.
type Args struct {
	bundle.Args
	Debounce time.Duration
}

// Run builds once, then watches the entry's source tree and rebuilds on
// changes until interrupted. The esbuild context (and with it the plugin's
// cache and build identity) lives for the whole session.
func Run(args Args) error {
	if args.Debounce <= 0 {
		args.Debounce = 100 * time.Millisecond
	}

	opts, err := bundle.Options(args.Args, true)
	if err != nil {
		return err
	}

	ctx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("creating build context: %w", ctxErr)
	}
	defer ctx.Dispose()

	rebuild := func() {
		start := time.Now()
		result := ctx.Rebuild()
		if len(result.Errors) > 0 {
			args.Log.Error("build failed", "errors", len(result.Errors))
			return
		}
		args.Log.Info("build finished", "duration", time.Since(start).Round(time.Millisecond))
	}
	rebuild()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	root := filepath.Dir(args.Entry)
	if err := addTree(watcher, root); err != nil {
		return err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	args.Log.Info("watching", "dir", root)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if !isSourcePath(event.Name) {
				continue
			}
			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addTree(watcher, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(args.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(args.Debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			args.Log.Warn("watch error", "err", err)
		case <-sigc:
			args.Log.Info("stopping")
			return nil
		}
	}
}

// addTree registers dir and every directory below it, skipping dependency
// and VCS trees.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == "node_modules" || strings.HasPrefix(name, ".") && path != dir {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// isSourcePath reports whether a change to path should trigger a rebuild. A
// generated declaration file must not: the rebuild that wrote it would
// retrigger itself forever.
func isSourcePath(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	ext := filepath.Ext(path)
	if ext == "" {
		// Possibly a directory; let the event through.
		return true
	}
	_, ok := common.Loaders[ext]
	return ok
}
