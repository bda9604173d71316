package browser

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/fsnotify/fsnotify"

	"github.com/smileynet/meshbrowse/internal/assettree"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// TreeWatcher reparses a tree file whenever it changes on disk.
type TreeWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	load    func() (*assettree.Tree, error)
	out     chan TreeChangedMsg
	done    chan struct{}
	once    sync.Once
}

// WatchTree watches the file at path and calls load after each change.
// The directory is watched rather than the file so that editors replacing
// the file by rename are seen.
func WatchTree(path string, load func() (*assettree.Tree, error)) (*TreeWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New("resolving watched path failed").WithTag("path", path).Wrap(err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New("creating file watcher failed").Wrap(err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.New("watching tree directory failed").WithTag("path", abs).Wrap(err)
	}

	tw := &TreeWatcher{
		watcher: w,
		path:    abs,
		load:    load,
		out:     make(chan TreeChangedMsg, 1),
		done:    make(chan struct{}),
	}
	go tw.run()
	return tw, nil
}

// Changes delivers a message per settled change. It is closed by Close.
func (tw *TreeWatcher) Changes() <-chan TreeChangedMsg {
	return tw.out
}

// Close stops watching.
func (tw *TreeWatcher) Close() error {
	var err error
	tw.once.Do(func() {
		close(tw.done)
		err = tw.watcher.Close()
	})
	return err
}

func (tw *TreeWatcher) run() {
	defer close(tw.out)

	var (
		timer   *time.Timer
		settled <-chan time.Time
	)
	for {
		select {
		case <-tw.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != tw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			settled = timer.C

		case <-settled:
			settled = nil
			tree, err := tw.load()
			logs.WithTag("path", tw.path).Debug("tree file changed")
			select {
			case tw.out <- TreeChangedMsg{Tree: tree, Err: err}:
			case <-tw.done:
				return
			}

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			logs.Warn(errors.New("file watcher error").WithTag("path", tw.path).Wrap(err))
		}
	}
}
