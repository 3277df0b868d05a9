package util

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func Min[A constraints.Ordered](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Ordered](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

// FindPath resolves path, falling back to a case-insensitive match on each
// element. Sound files referenced by charts rarely match the disk's case.
func FindPath(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if _, err := os.Stat(path); err == nil {
		return path, true
	}

	dir, base := filepath.Split(path)
	dir = filepath.Clean(dir)
	if dir != "." && dir != string(filepath.Separator) {
		resolved, ok := FindPath(dir)
		if !ok {
			return "", false
		}
		dir = resolved
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), base) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}
