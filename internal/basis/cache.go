package basis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

type CachePolicy string

const (
	// read every cached file that exists
	CacheAlways CachePolicy = "always"
	// never read the cache, files are still written
	CacheNever CachePolicy = "never"
	// refetch the newest legislature and read the rest from the cache, old legislatures do not change
	CachePreviousSessions CachePolicy = "previous-sessions"
)

func ParseCachePolicy(s string) (CachePolicy, error) {
	switch p := CachePolicy(s); p {
	case CacheAlways, CacheNever, CachePreviousSessions:
		return p, nil
	}
	return "", fmt.Errorf("unknown cache policy %q", s)
}

// Cache stores raw responses on disk as json, an empty Dir disables it.
type Cache struct {
	Dir    string
	Policy CachePolicy
}

const legislaturesFile = "legislatures.json"

// Path returns the file for one kind of record, eg. members/members_31.json.
func (c Cache) Path(kind string, legislature int) string {
	dir := kind
	if kind == "votes" {
		dir = "choices"
	}
	return filepath.Join(c.Dir, dir, fmt.Sprintf("%s_%d.json", kind, legislature))
}

// NeedRefresh reports whether a file must be fetched again, legislatures is every legislature the
// current run requests.
func (c Cache) NeedRefresh(path string, legislature int, legislatures []int) bool {
	if c.Dir == "" || c.Policy == CacheNever {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}
	if c.Policy == CacheAlways {
		return false
	}
	return len(legislatures) > 0 && legislature == slices.Max(legislatures)
}

func readCached[T any](path string) ([]T, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []T
	err = json.Unmarshal(contents, &rows)
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", path, err)
	}
	return rows, nil
}

func writeCached[T any](c Cache, path string, rows []T) error {
	if c.Dir == "" {
		return nil
	}
	if rows == nil {
		rows = []T{}
	}
	contents, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}

// cached returns the rows at path if the policy allows it, or calls fetch and stores the result.
func cached[T any](c Cache, path string, legislature int, legislatures []int, fetch func() ([]T, error)) ([]T, error) {
	if !c.NeedRefresh(path, legislature, legislatures) {
		rows, err := readCached[T](path)
		if err == nil {
			return rows, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	rows, err := fetch()
	if err != nil {
		return nil, err
	}
	err = writeCached(c, path, rows)
	if err != nil {
		return nil, fmt.Errorf("write cache %s: %w", path, err)
	}
	return rows, nil
}
