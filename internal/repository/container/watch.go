package container

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long the directory must stay quiet before a reload.
const DefaultSettleDelay = 200 * time.Millisecond

// Watch reloads the containers whenever a container file of the directory changes, once
// changes have settled for delay. The watch is registered before Watch returns; it stops
// when ctx is done.
func (r *Repo) Watch(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(r.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}
	go r.watchLoop(ctx, w, delay)
	return nil
}

func (r *Repo) watchLoop(ctx context.Context, w *fsnotify.Watcher, delay time.Duration) {
	defer func() { _ = w.Close() }()

	settled := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !isContainerFile(ev.Name) || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			r.logger.Debug("container file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.AfterFunc(delay, func() {
					select {
					case settled <- struct{}{}:
					default:
					}
				})
				continue
			}
			timer.Reset(delay)
		case <-settled:
			r.reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Warn("container watcher", zap.Error(err))
		}
	}
}
