package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Dataset is a trade table found in the input directory. Name is the file
// name without the dataset suffix and extension, e.g. "CAM" for
// CAM_Trade.xlsx.
type Dataset struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// extensions lists readable table formats in order of preference
var extensions = []string{".xlsx", ".xlsm", ".csv"}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDatasets returns the datasets named "<NAME><suffix>.<ext>" in dir,
// sorted by name. When a dataset exists in several formats the xlsx file
// wins over xlsm and csv. A non-empty only restricts the result to those
// names; a requested name that is not found is an error.
func (d *Discovery) FindDatasets(dir, suffix string, only []string) ([]Dataset, error) {
	files, err := d.FindTableFiles(dir)
	if err != nil {
		return nil, err
	}

	best := make(map[string]FileInfo)
	rank := make(map[string]int)
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Name))
		stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		if !strings.HasSuffix(stem, suffix) || len(stem) == len(suffix) {
			continue
		}
		name := strings.TrimSuffix(stem, suffix)
		r := extensionRank(ext)
		if prev, ok := rank[name]; ok && prev <= r {
			continue
		}
		best[name] = f
		rank[name] = r
	}

	var datasets []Dataset
	if len(only) > 0 {
		var missing []string
		for _, name := range only {
			f, ok := best[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			datasets = append(datasets, Dataset{Name: name, Path: f.Path})
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("datasets not found in %s: %s", d.resolve(dir), strings.Join(missing, ", "))
		}
	} else {
		for name, f := range best {
			datasets = append(datasets, Dataset{Name: name, Path: f.Path})
		}
	}

	sort.Slice(datasets, func(i, j int) bool {
		return datasets[i].Name < datasets[j].Name
	})
	return datasets, nil
}

// FindTableFiles lists the spreadsheet and CSV files of dir. Office lock
// files ("~$...") are skipped.
func (d *Discovery) FindTableFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") || extensionRank(strings.ToLower(filepath.Ext(name))) < 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func extensionRank(ext string) int {
	for i, e := range extensions {
		if e == ext {
			return i
		}
	}
	return -1
}
