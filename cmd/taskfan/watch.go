package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the write bursts editors and the store CLI
// produce when rewriting the tasks file.
const watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-resolve readiness whenever the tasks file changes",
	Long: `Watch the store's tasks file and print a fresh readiness report on
every change. Useful while agents are completing tasks in parallel.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	engine := newEngine()

	// Watch the directory, not the file: the store CLI replaces the file
	// on save, which drops a direct file watch.
	tasksFile, err := filepath.Abs(cfg.Store.File)
	if err != nil {
		return fmt.Errorf("resolve tasks file path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(tasksFile)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(tasksFile), err)
	}

	printResolution := func() {
		snap, res, err := engine.Resolve()
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
			return
		}
		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		printReadyText(snap.Tag, res)
	}

	printResolution()
	fmt.Printf("Watching %s\n", tasksFile)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != tasksFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			printResolution()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: %v\n", err)
		case <-sigs:
			fmt.Println()
			return nil
		}
	}
}
