package engine

import (
	"github.com/pravshot/nhutils/internal/cache"
	"github.com/pravshot/nhutils/internal/catalog"
)

// resolvedFile is one file to load for a cycle and the requested
// variables it holds.
type resolvedFile struct {
	desc    cache.Descriptor
	columns []string
}

// resolve returns the distinct files of year holding variables, in order of
// each file's first variable. The identifier (variables[0]) does not select
// files. Variables must already be validated for year.
func resolve(cat *catalog.Catalog, variables []string, year string) []resolvedFile {
	var files []resolvedFile
	index := make(map[string]int)

	for _, v := range variables[1:] {
		name, _ := cat.Lookup(year, v)
		i, ok := index[name]
		if !ok {
			i = len(files)
			index[name] = i
			files = append(files, resolvedFile{desc: cache.Descriptor{Year: year, File: name}})
		}
		files[i].columns = append(files[i].columns, v)
	}
	return files
}
