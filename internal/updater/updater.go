// Package updater triggers the external server update command and watches
// for the marker file the installer drops when it finishes. The update
// command itself is opaque to the daemon.
package updater

import (
	"fmt"
	"log"
	"os/exec"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type CompleteHandler func()

// Updater runs the configured update command and reports installer
// completion via the handler. The handler is invoked from the watcher
// goroutine and must only enqueue an event.
type Updater struct {
	command    string
	markerPath string
	watcher    *fsnotify.Watcher
	onComplete CompleteHandler
}

func New(command, markerPath string) *Updater {
	return &Updater{
		command:    command,
		markerPath: markerPath,
	}
}

func (u *Updater) SetCompleteHandler(handler CompleteHandler) {
	u.onComplete = handler
}

// Enabled reports whether an update command is configured.
func (u *Updater) Enabled() bool {
	return u.command != ""
}

// Run launches the update command in the background. The command's own
// output and exit status are logged only; completion is signalled by the
// marker file, not by process exit.
func (u *Updater) Run() error {
	if u.command == "" {
		return fmt.Errorf("no update command configured")
	}

	cmd := exec.Command("/bin/sh", "-c", u.command)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch update command: %w", err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("Update command exited with error: %v", err)
		}
	}()
	return nil
}

// Watch starts the marker-file watcher. The installer is expected to
// create (or rewrite) the marker file when it has finished.
func (u *Updater) Watch() error {
	if u.markerPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create install watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(u.markerPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch install marker directory: %w", err)
	}
	u.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != u.markerPath {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				log.Printf("Install marker observed: %s", event.Name)
				if u.onComplete != nil {
					u.onComplete()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Install watcher error: %v", err)
			}
		}
	}()
	return nil
}

func (u *Updater) Close() {
	if u.watcher != nil {
		u.watcher.Close()
	}
}
