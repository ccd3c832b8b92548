package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/report-atlas/pkg/services/config"
)

var ErrJobNotFound = errors.New("report job not found")

var jobExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// Previewer renders jobs kept in a directory without sending them.
type Previewer struct {
	dir    string
	runner *Runner
}

func NewPreviewer(dir string, runner *Runner) *Previewer {
	return &Previewer{dir: dir, runner: runner}
}

// Preview loads <dir>/<name>.{yaml,yml,json,toml} and returns the HTML
// body the job would send.
func (p *Previewer) Preview(ctx context.Context, name string) (string, error) {
	path, err := p.find(name)
	if err != nil {
		return "", err
	}
	job, err := config.LoadJob(path)
	if err != nil {
		return "", err
	}
	b, err := p.runner.Build(ctx, job)
	if err != nil {
		return "", err
	}
	return b.HTML(), nil
}

func (p *Previewer) find(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrJobNotFound, name)
	}
	for _, ext := range jobExtensions {
		path := filepath.Join(p.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrJobNotFound, name)
}
