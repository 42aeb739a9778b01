package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Editors rewrite files with several events in quick succession; wait
// for the burst to settle before regenerating.
const debounce = 200 * time.Millisecond

// watchAndGenerate regenerates on every manifest change until the
// context is cancelled. The manifest's directory is watched rather than
// the file itself: atomic saves replace the inode.
func watchAndGenerate(ctx context.Context, path string, out io.Writer) error {
	if err := generateOnce(ctx, path, out); err != nil {
		// A broken manifest at startup is reported but keeps the
		// watcher alive so the next save can fix it.
		fmt.Fprintln(out, "generate:", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	fmt.Fprintf(out, "watching %s\n", path)

	target := filepath.Clean(path)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, "watch:", err)
		case <-fire:
			timer = nil
			fire = nil
			if err := generateOnce(ctx, path, out); err != nil {
				fmt.Fprintln(out, "generate:", err)
			}
		}
	}
}
