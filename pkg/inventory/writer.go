package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// VarWriter serializes one variable table entry per file, in the
// host_vars/group_vars layout inventory tooling expects.
type VarWriter struct {
	Dir string
}

// WriteAll writes <dir>/<owner>.yml for every owner in the table. A failed
// write is logged and skipped; the remaining files are still written. The
// returned error joins the individual failures, if any.
func (w VarWriter) WriteAll(table map[string]map[string]any) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", w.Dir, err)
	}

	owners := make([]string, 0, len(table))
	for owner := range table {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	var errs []error
	for _, owner := range owners {
		path := filepath.Join(w.Dir, owner+".yml")
		if err := w.writeOne(path, table[owner]); err != nil {
			log.WithError(err).WithField("file", path).Warn("failed to write var file")
			errs = append(errs, err)
			continue
		}
		log.WithField("file", path).Debug("wrote var file")
	}
	return errors.Join(errs...)
}

func (w VarWriter) writeOne(path string, vars map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(vars); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
