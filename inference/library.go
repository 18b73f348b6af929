package inference

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInitOnce sync.Once
var ortInitErr error

var sharedLibraryNames = []string{
	"libonnxruntime.so",
	"libonnxruntime.so.1",
	"libonnxruntime.so.1.23.2",
}

// initRuntime points onnxruntime_go at a shared library and initialises the
// process-wide environment once. ORT_SHARED_LIBRARY_PATH wins; otherwise the
// working directory and its parents are searched.
func initRuntime() error {
	ortInitOnce.Do(func() {
		if runtime.GOOS == "linux" {
			ensureLinuxLibraryPath()
			if p := os.Getenv("ORT_SHARED_LIBRARY_PATH"); p != "" {
				ort.SetSharedLibraryPath(p)
			} else if p := findSharedLibrary(); p != "" {
				ort.SetSharedLibraryPath(p)
			}
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

func findSharedLibrary() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for up := 0; up < 6; up++ {
		for _, name := range sharedLibraryNames {
			abs := filepath.Join(dir, name)
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ensureLinuxLibraryPath prepends CUDA library dirs from a project-local
// .venv to LD_LIBRARY_PATH so the CUDA provider can load them.
func ensureLinuxLibraryPath() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	candidateDirs := []string{cwd}
	patterns := []string{
		filepath.Join(cwd, ".venv", "lib", "python*", "site-packages", "nvidia", "*", "lib"),
		filepath.Join(cwd, ".venv", "lib", "python*", "site-packages", "onnxruntime", "capi"),
	}
	for _, pat := range patterns {
		matches, _ := filepath.Glob(pat)
		candidateDirs = append(candidateDirs, matches...)
	}

	existing := os.Getenv("LD_LIBRARY_PATH")
	existingSet := map[string]bool{}
	for _, p := range strings.Split(existing, ":") {
		if p != "" {
			existingSet[p] = true
		}
	}

	toAdd := make([]string, 0, len(candidateDirs))
	for _, d := range candidateDirs {
		if existingSet[d] {
			continue
		}
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			toAdd = append(toAdd, d)
		}
	}
	if len(toAdd) == 0 {
		return
	}

	newVal := strings.Join(toAdd, ":")
	if existing != "" {
		newVal = newVal + ":" + existing
	}
	_ = os.Setenv("LD_LIBRARY_PATH", newVal)
}
