package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Tsinling0525/scriptflow/format/graphdoc"
)

var (
	ErrGraphNotFound    = errors.New("graph not found")
	ErrInvalidGraphName = errors.New("invalid graph name")
)

// GraphStore persists graph documents by name.
type GraphStore interface {
	Put(ctx context.Context, doc graphdoc.Document) error
	Get(ctx context.Context, name string) (graphdoc.Document, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w %q", ErrInvalidGraphName, name)
	}
	return nil
}

// LocalGraphs stores graph documents as YAML files under <dataDir>/graphs.
type LocalGraphs struct{ dataDir string }

func NewLocalGraphs(dataDir string) *LocalGraphs { return &LocalGraphs{dataDir: dataDir} }

func (l *LocalGraphs) Put(ctx context.Context, doc graphdoc.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(doc.Name); err != nil {
		return err
	}
	if err := ensureDir(GraphsDir(l.dataDir)); err != nil {
		return err
	}
	data, err := graphdoc.Encode(doc)
	if err != nil {
		return err
	}
	path := GraphPath(l.dataDir, doc.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (l *LocalGraphs) Get(ctx context.Context, name string) (graphdoc.Document, error) {
	if err := ctx.Err(); err != nil {
		return graphdoc.Document{}, err
	}
	if err := checkName(name); err != nil {
		return graphdoc.Document{}, err
	}
	data, err := os.ReadFile(GraphPath(l.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return graphdoc.Document{}, fmt.Errorf("%w: %s", ErrGraphNotFound, name)
		}
		return graphdoc.Document{}, err
	}
	return graphdoc.Decode(data)
}

func (l *LocalGraphs) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(GraphsDir(l.dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

func (l *LocalGraphs) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(GraphPath(l.dataDir, name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrGraphNotFound, name)
	}
	return err
}

var _ GraphStore = (*LocalGraphs)(nil)
