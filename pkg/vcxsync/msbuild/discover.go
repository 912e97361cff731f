package msbuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Project file suffixes.
const (
	ProjectExt = ".vcxproj"
	FiltersExt = ".filters"
)

// ErrProjectNotFound indicates that no project file exists in the root.
var ErrProjectNotFound = errors.New("no .vcxproj file found")

// ErrAmbiguousProject indicates that the root holds several project files
// and none was chosen explicitly.
var ErrAmbiguousProject = errors.New("multiple .vcxproj files found")

// FindProject locates the project file to sync. An explicit path is
// resolved against root and must name an existing .vcxproj file. Otherwise
// root must contain exactly one .vcxproj file.
func FindProject(root, explicit string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if !strings.EqualFold(filepath.Ext(path), ProjectExt) {
			return "", fmt.Errorf("%s: not a %s file", path, ProjectExt)
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s: is a directory", path)
		}
		return path, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", err
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ProjectExt) {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrProjectNotFound, root)
	case 1:
		return filepath.Join(root, candidates[0]), nil
	default:
		return "", fmt.Errorf("%w in %s: %s (choose one with --project)",
			ErrAmbiguousProject, root, strings.Join(candidates, ", "))
	}
}

// FiltersPath returns the filters file that belongs to project.
func FiltersPath(project string) string {
	return project + FiltersExt
}
