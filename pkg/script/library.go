package script

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/grephite/pkg/errors"
)

// Library is a directory of loadable scripts.
type Library struct {
	dir    string
	logger *log.Logger
}

// NewLibrary returns a library rooted at dir. A nil logger discards output.
func NewLibrary(dir string, logger *log.Logger) *Library {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Library{dir: dir, logger: logger}
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// List returns the sorted names of the scripts in the directory. A missing
// directory is an empty library.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isScript(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Read returns the source of the named script. Names are plain file names;
// anything that could leave the directory is rejected.
func (l *Library) Read(name string) (string, error) {
	if err := errors.ValidateScriptName(name); err != nil {
		return "", err
	}
	src, err := os.ReadFile(filepath.Join(l.dir, name))
	if stderrors.Is(err, fs.ErrNotExist) {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "script %s", name)
	}
	if err != nil {
		return "", err
	}
	return string(src), nil
}

// Watch calls onChange with the fresh listing whenever a script is created,
// removed, renamed or rewritten. It blocks until ctx is done.
func (l *Library) Watch(ctx context.Context, onChange func(names []string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(l.dir); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", l.dir)
	}
	l.logger.Debug("watching scripts", "dir", l.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isScript(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			names, err := l.List()
			if err != nil {
				l.logger.Warn("list scripts", "dir", l.dir, "err", err)
				continue
			}
			l.logger.Debug("scripts changed", "file", filepath.Base(ev.Name), "op", ev.Op)
			onChange(names)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("script watcher", "err", err)
		}
	}
}

func isScript(name string) bool {
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), errors.ScriptExt)
}
