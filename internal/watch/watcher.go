package watch

import (
	"context"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/pagebundle/internal/buildconfig"
)

const defaultDebounce = 200 * time.Millisecond

// Builder rebuilds the project after a batch of saves.
type Builder interface {
	Build() error
}

// Result describes one debounced batch of changes.
type Result struct {
	Files    []string
	BuildErr error
	LintErr  error
	Linted   bool
}

type Option func(*Watcher)

// WithDebounce sets how long the watcher waits for further saves before rebuilding.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithLinter sets the lint tool run after each batch when lintOnSave is enabled.
func WithLinter(l Linter) Option {
	return func(w *Watcher) {
		w.linter = l
	}
}

// WithResultHandler registers a callback invoked after every batch.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher rebuilds a project when its sources are saved and, when the build
// config enables lintOnSave, runs the lint tool over the saved files.
type Watcher struct {
	cfg      buildconfig.BuildConfig
	builder  Builder
	linter   Linter
	debounce time.Duration
	onResult func(Result)
	fsw      *fsnotify.Watcher
}

// New creates a watcher and registers every source directory under the
// project root. Watching starts when Run is called.
func New(cfg buildconfig.BuildConfig, builder Builder, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:      cfg,
		builder:  builder,
		debounce: defaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(cfg.ProjectRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Run processes filesystem events until ctx is cancelled, then releases the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close file watcher")
		}
	}()

	log.Info().Str("root", w.cfg.ProjectRoot).Bool("lintOnSave", w.cfg.LintOnSave).Msg("Watching for changes")

	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			pending[event.Name] |= event.Op

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("File watcher error")

		case <-fire:
			fire = nil
			w.flush(ctx, pending)
			clear(pending)
		}
	}
}

// handleEvent reports whether the event should trigger a rebuild, adding
// newly created directories to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
			}
			return false
		}
	}

	log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Source changed")
	return true
}

func (w *Watcher) flush(ctx context.Context, pending map[string]fsnotify.Op) {
	result := Result{Files: slices.Sorted(maps.Keys(pending))}

	started := time.Now()
	result.BuildErr = w.builder.Build()
	if result.BuildErr != nil {
		log.Error().Err(result.BuildErr).Msg("Rebuild failed")
	} else {
		log.Info().Int("files", len(result.Files)).Dur("duration", time.Since(started)).Msg("Rebuilt")
	}

	if w.cfg.LintOnSave && w.linter != nil {
		saved := make([]string, 0, len(pending))
		for _, name := range result.Files {
			op := pending[name]
			if op.Has(fsnotify.Create) || op.Has(fsnotify.Write) {
				if _, err := os.Stat(name); err == nil {
					saved = append(saved, name)
				}
			}
		}

		if len(saved) > 0 {
			result.Linted = true
			result.LintErr = w.linter.Lint(ctx, saved)
			if result.LintErr != nil {
				log.Warn().Err(result.LintErr).Strs("files", saved).Msg("Lint reported problems")
			}
		}
	}

	if w.onResult != nil {
		w.onResult(result)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.cfg.ProjectRoot && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// ignored reports whether path is inside the output directory, a
// node_modules directory or a dot directory.
func (w *Watcher) ignored(path string) bool {
	if w.cfg.OutputDir != "" && (path == w.cfg.OutputDir || strings.HasPrefix(path, w.cfg.OutputDir+string(filepath.Separator))) {
		return true
	}

	rel, err := filepath.Rel(w.cfg.ProjectRoot, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "node_modules" || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return true
		}
	}
	return false
}
