package recognition

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// CollectImages expands the given files and directories into the supported image
// files they contain. Directories are walked recursively when recursive is set.
// Explicit file arguments are kept even when unsupported so they show up as failures.
func CollectImages(args []string, recursive bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			out = append(out, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
		slices.Sort(found)
		out = append(out, found...)
	}
	return out, nil
}
