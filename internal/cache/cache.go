package cache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"xref-tui/internal/api"
)

type Cache struct {
	cacheDir string
}

// NewCache opens the tree cache rooted at dir, or under the user's cache
// directory when dir is empty.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		userDir, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(userDir, "xref-tui", "trees")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{cacheDir: dir}, nil
}

const treeExt = ".json"

// File names escape the host so ListCached can recover it.
func (c *Cache) path(host string) string {
	return filepath.Join(c.cacheDir, url.QueryEscape(host)+treeExt)
}

// IsCached checks if the tree for host is already stored
func (c *Cache) IsCached(host string) bool {
	_, err := os.Stat(c.path(host))
	return err == nil
}

// GetTree reads the cached tree for host
func (c *Cache) GetTree(host string) ([]api.TreeNode, error) {
	if !c.IsCached(host) {
		return nil, fmt.Errorf("tree for %s not cached", host)
	}

	file, err := os.Open(c.path(host))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var nodes []api.TreeNode
	if err := json.NewDecoder(file).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("decode cached tree: %w", err)
	}
	return nodes, nil
}

// PutTree stores the tree for host, replacing any previous copy
func (c *Cache) PutTree(host string, nodes []api.TreeNode) error {
	tmp, err := os.CreateTemp(c.cacheDir, ".tree-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(nodes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.path(host))
}

// ListCached returns the hosts with a cached tree
func (c *Cache) ListCached() ([]string, error) {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != treeExt {
			continue
		}
		host, err := url.QueryUnescape(strings.TrimSuffix(name, treeExt))
		if err != nil {
			continue
		}
		hosts = append(hosts, host)
	}

	return hosts, nil
}

// RemoveTree drops the cached tree for host
func (c *Cache) RemoveTree(host string) error {
	return os.Remove(c.path(host))
}

// ClearCache removes all cached trees
func (c *Cache) ClearCache() error {
	return os.RemoveAll(c.cacheDir)
}
