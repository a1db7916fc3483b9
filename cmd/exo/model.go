package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/exocore-dev/exocore/model"
)

// loadModel reads every *.exo source file under dir and compiles them
// into one Model (spec §6 "Model source language"). Files are sorted
// by path so compilation is deterministic regardless of directory
// iteration order.
func loadModel(dir, schemaName string) (*model.Model, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".exo" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, usage("no .exo model files found under %s", dir)
	}

	sources := make([]model.Source, 0, len(paths))
	for _, p := range paths {
		text, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, model.Source{Path: p, Text: string(text)})
	}

	m, errs := model.Compile(sources, schemaName)
	if errs != nil {
		return nil, errs
	}
	return m, nil
}
