package rbac

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// RoleFile is the on-disk YAML format for operator-managed custom roles:
//
//	roles:
//	  contractor:
//	    sign: true
//	    view: true
//	  auditor:
//	    view: true
type RoleFile struct {
	Roles map[string]map[string]bool `yaml:"roles"`
}

// LoadRoleFile parses a YAML role file into permission sets. Unknown action
// names in the file are rejected so typos fail loudly instead of silently
// denying.
func LoadRoleFile(path string) (map[string]PermissionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read role file: %w", err)
	}

	var file RoleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse role file %s: %w", path, err)
	}

	known := make(map[string]bool, len(Actions()))
	for _, a := range Actions() {
		known[string(a)] = true
	}

	roles := make(map[string]PermissionSet, len(file.Roles))
	for name, actions := range file.Roles {
		perms := make(PermissionSet, len(actions))
		for action, allowed := range actions {
			if !known[action] {
				return nil, fmt.Errorf("role file %s: role %q references unknown action %q", path, name, action)
			}
			perms[Action(action)] = allowed
		}
		roles[name] = perms
	}
	return roles, nil
}

// Watcher hot-reloads a role file into an engine whenever the file changes.
type Watcher struct {
	engine *Engine
	path   string
	logger *logrus.Entry
}

// NewWatcher creates a role file watcher. The file is loaded once immediately
// so the engine starts with the on-disk table.
func NewWatcher(engine *Engine, path string, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	w := &Watcher{
		engine: engine,
		path:   path,
		logger: logger.WithFields(logrus.Fields{"component": "rbac", "role_file": path}),
	}
	if err := w.reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Watch blocks until ctx is cancelled, reloading the role file on every write
// or rename. Reload failures keep the previous table and are logged; a bad
// edit never wipes the running roles.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory: editors replace files via rename, which drops a
	// watch set on the file itself.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch role file directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := w.reload(); err != nil {
				w.logger.WithError(err).Warn("role file reload failed, keeping previous table")
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("role file watcher error")
		}
	}
}

func (w *Watcher) reload() error {
	roles, err := LoadRoleFile(w.path)
	if err != nil {
		return err
	}
	w.engine.ReplaceCustomRoles(roles)
	w.logger.WithField("count", len(roles)).Info("role file loaded")
	return nil
}
