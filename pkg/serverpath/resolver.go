package serverpath

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-companion-go/pkg/deployment"
	"github.com/core-tools/hsu-companion-go/pkg/errors"
)

const (
	DefaultServerDir        = "server"
	DefaultEntryFile        = "app.cjs"
	DefaultResourcesDir     = "Resources"
	DefaultDevelopmentDepth = 4
	DefaultProductionDepth  = 2
)

// Layout describes where the companion entry point lives relative to the
// shell executable in each deployment mode.
//
// Development: <exe>/<DevelopmentDepth parents>/<ServerDir>/<EntryFile>
// Production:  <exe>/<ProductionDepth parents>/<ResourcesDir>/<ServerDir>/<EntryFile>
type Layout struct {
	ServerDir        string `yaml:"server_dir"`
	EntryFile        string `yaml:"entry_file"`
	ResourcesDir     string `yaml:"resources_dir"`
	DevelopmentDepth int    `yaml:"development_depth"`
	ProductionDepth  int    `yaml:"production_depth"`
}

func DefaultLayout() Layout {
	return Layout{
		ServerDir:        DefaultServerDir,
		EntryFile:        DefaultEntryFile,
		ResourcesDir:     DefaultResourcesDir,
		DevelopmentDepth: DefaultDevelopmentDepth,
		ProductionDepth:  DefaultProductionDepth,
	}
}

// Resolve computes the companion entry path for the given mode. The path is
// not checked for existence. An executable path with fewer ancestors than the
// layout requires yields a path error.
func Resolve(mode deployment.Mode, exePath string, layout Layout) (string, error) {
	if exePath == "" {
		return "", errors.NewPathError("executable path is empty", nil)
	}

	if !mode.Valid() {
		return "", errors.NewValidationError(fmt.Sprintf("unsupported deployment mode: %d", int(mode)), nil)
	}

	if mode == deployment.Production {
		installDir, err := ancestor(exePath, layout.ProductionDepth)
		if err != nil {
			return "", err
		}
		return filepath.Join(installDir, layout.ResourcesDir, layout.ServerDir, layout.EntryFile), nil
	}

	root, err := ancestor(exePath, layout.DevelopmentDepth)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, layout.ServerDir, layout.EntryFile), nil
}

// ResolveCurrent resolves against the path of the running executable
func ResolveCurrent(mode deployment.Mode, layout Layout) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", errors.NewIOError("failed to locate current executable", err)
	}
	return Resolve(mode, exePath, layout)
}

// ancestor walks depth parents up from path. The parent of a filesystem
// root, or of ".", does not exist.
func ancestor(path string, depth int) (string, error) {
	if depth < 0 {
		return "", errors.NewValidationError("ancestor depth cannot be negative", nil).WithContext("depth", depth)
	}

	current := filepath.Clean(path)
	for i := 0; i < depth; i++ {
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.NewPathError("executable path has too few ancestors", nil).
				WithContext("executable", path).
				WithContext("required_depth", depth).
				WithContext("available_depth", i)
		}
		current = parent
	}
	return current, nil
}
