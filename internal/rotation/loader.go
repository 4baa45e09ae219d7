package rotation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadDefinition loads a rotation file relative to baseDir, resolving
// imports depth-first, and compiles it.
func LoadDefinition(baseDir, relPath string) (*Definition, error) {
	file, err := LoadFile(baseDir, relPath)
	if err != nil {
		return nil, err
	}
	def, err := Compile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}
	return def, nil
}

// LoadFile reads a rotation file and merges its imports. Imports resolve
// relative to the file naming them. Imported entries come first; the
// importing file's variables and prerequisites win.
func LoadFile(baseDir, relPath string) (*File, error) {
	seen := map[string]bool{}
	return loadRecursive(baseDir, relPath, seen)
}

func loadRecursive(baseDir, relPath string, seen map[string]bool) (*File, error) {
	fullPath := filepath.Join(baseDir, relPath)
	if seen[fullPath] {
		return nil, fmt.Errorf("rotation import cycle detected at %s", fullPath)
	}
	seen[fullPath] = true

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", relPath, err)
	}

	// Resolve imports depth-first, relative to the importing file.
	dir := filepath.Dir(fullPath)
	var compiledRotation []ActionDefinition
	var precombat []string
	variables := map[string]any{}
	prerequisites := map[string]string{}
	for _, imp := range file.Imports {
		child, err := loadRecursive(dir, imp, seen)
		if err != nil {
			return nil, err
		}
		compiledRotation = append(compiledRotation, child.Rotation...)
		precombat = append(precombat, child.Precombat...)
		for k, v := range child.Variables {
			variables[k] = v
		}
		for k, v := range child.Prerequisites {
			prerequisites[k] = v
		}
		if file.Precast == "" {
			file.Precast = child.Precast
		}
	}
	for k, v := range file.Variables {
		variables[k] = v
	}
	for k, v := range file.Prerequisites {
		prerequisites[k] = v
	}
	file.Rotation = append(compiledRotation, file.Rotation...)
	file.Precombat = append(precombat, file.Precombat...)
	file.Variables = variables
	file.Prerequisites = prerequisites

	seen[fullPath] = false
	return &file, nil
}
