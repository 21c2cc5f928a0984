package registry

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/service"
	"github.com/cogrob/rorg/internal/serviceid"
	"github.com/cogrob/rorg/pkg/logging"
)

const (
	stateFileExt     = ".service_state"
	removedSuffix    = ".removed"
	statePermissions = 0o644
	stateDirPerm     = 0o755
)

// statePath returns the on-disk path for id's persisted ServiceState, a
// namespace-mirrored directory tree under the registry's storage base.
func (r *Registry) statePath(id serviceid.ServiceId) string {
	segs := append(append([]string{}, id.Namespace...), id.Name+stateFileExt)
	return filepath.Join(append([]string{r.cfg.StorageBasePath}, segs...)...)
}

// WriteToDisk persists every managed service's current ServiceState to
// its namespace-mirrored file, then tombstones (renames to
// .service_state.removed) any on-disk state file that no longer
// corresponds to a managed service. Callers must already hold Lock; the
// RPC facade calls this as the final step of every mutating handler, so
// the file on disk and the in-memory map never observably diverge (I6).
func (r *Registry) WriteToDisk() error {
	live := make(map[string]bool, len(r.services))
	for _, svc := range r.services {
		state := svc.ToState()
		path := r.statePath(state.ID)
		live[path] = true

		if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
			return rorgerr.Internalf("creating state directory for %s: %v", state.ID, err)
		}
		data, err := yaml.Marshal(state)
		if err != nil {
			return rorgerr.Internalf("marshaling state for %s: %v", state.ID, err)
		}
		if err := os.WriteFile(path, data, statePermissions); err != nil {
			return rorgerr.Internalf("writing state for %s: %v", state.ID, err)
		}
	}

	return r.tombstoneOrphans(live)
}

// tombstoneOrphans walks the storage tree and renames any
// .service_state file not present in live to .service_state.removed,
// overwriting a previous tombstone if one exists.
func (r *Registry) tombstoneOrphans(live map[string]bool) error {
	err := filepath.Walk(r.cfg.StorageBasePath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() || !strings.HasSuffix(path, stateFileExt) {
			return nil
		}
		if live[path] {
			return nil
		}
		tombstone := path + removedSuffix
		if err := os.Rename(path, tombstone); err != nil {
			logging.Warn(subsystem, "failed to tombstone orphaned state file %s: %v", path, err)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return rorgerr.Internalf("walking storage tree: %v", err)
	}
	return nil
}

// LoadFromDisk walks the storage tree at startup, restoring every
// non-tombstoned .service_state file into the registry. Callers must
// already hold Lock.
func (r *Registry) LoadFromDisk(ctx context.Context) error {
	err := filepath.Walk(r.cfg.StorageBasePath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if info.IsDir() || !strings.HasSuffix(path, stateFileExt) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return rorgerr.Internalf("reading state file %s: %v", path, err)
		}
		var state service.ServiceState
		if err := yaml.Unmarshal(data, &state); err != nil {
			return rorgerr.Internalf("unmarshaling state file %s: %v", path, err)
		}

		svc, err := service.RestoreFromState(state, r.drivers, r.cfg.DockerStatsValidTime, r)
		if err != nil {
			return rorgerr.Internalf("restoring service %s from %s: %v", state.ID, path, err)
		}
		if ds, ok := svc.(*service.DockerService); ok {
			if err := ds.RestoreHandle(ctx); err != nil {
				return err
			}
		}
		r.services[state.ID.Key()] = svc
		logging.Info(subsystem, "restored service %s from disk", state.ID)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
