// Package organize moves a video into <target>/<category>/<name><ext>.
package organize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/fsx"
	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

const dirPerm = 0o755

// Organizer performs OrganizeRequests. It holds no state besides its logger.
type Organizer struct {
	log logger.Logger
}

// New returns an Organizer.
func New(log logger.Logger) *Organizer {
	return &Organizer{log: log.With(logger.Component("organizer"))}
}

// Validate checks req without touching the filesystem and returns a
// trimmed copy.
func Validate(req domain.OrganizeRequest) (domain.OrganizeRequest, error) {
	out := domain.OrganizeRequest{
		SourcePath:  strings.TrimSpace(req.SourcePath),
		TargetRoot:  strings.TrimSpace(req.TargetRoot),
		Category:    domain.NormalizeCategory(req.Category),
		NewBaseName: strings.TrimSpace(req.NewBaseName),
	}

	if out.SourcePath == "" {
		return out, domain.Validation("source file is required")
	}
	if out.TargetRoot == "" {
		return out, domain.Validation("target directory is required")
	}
	if err := domain.ValidateSegment("category", out.Category); err != nil {
		return out, err
	}
	if err := domain.ValidateSegment("new file name", out.NewBaseName); err != nil {
		return out, err
	}
	return out, nil
}

// Destination returns the path req would be moved to.
func Destination(req domain.OrganizeRequest) string {
	ext := filepath.Ext(req.SourcePath)
	return filepath.Join(filepath.Clean(req.TargetRoot), req.Category, req.NewBaseName+ext)
}

// Organize creates the category directory when needed and renames the
// source into it, keeping the original extension. Nothing is retried.
func (o *Organizer) Organize(ctx context.Context, req domain.OrganizeRequest) (string, error) {
	req, err := Validate(req)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src := filepath.Clean(req.SourcePath)
	categoryDir := filepath.Join(filepath.Clean(req.TargetRoot), req.Category)
	dst := Destination(req)

	if err := os.MkdirAll(categoryDir, dirPerm); err != nil {
		return "", domain.IO(fmt.Sprintf("failed to create category directory %s", categoryDir), err)
	}

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.NotFound(fmt.Sprintf("source file %s no longer exists", src), err)
		}
		return "", domain.IO("failed to access source file", err)
	}
	if !info.Mode().IsRegular() {
		return "", domain.Validation("%s is not a regular file", src)
	}

	if src == dst {
		o.log.Debug("source already at destination", logger.String("path", src))
		return dst, nil
	}

	if _, err := os.Lstat(dst); err == nil {
		return "", domain.Conflict("destination %s already exists", dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", domain.IO("failed to check destination", err)
	}

	if err := fsx.Rename(src, dst); err != nil {
		if fsx.IsCrossDevice(err) {
			return "", domain.IO("source and target directory are on different drives", err)
		}
		return "", domain.IO("failed to move file", err)
	}

	o.log.Info("organized video",
		logger.String("source", src),
		logger.String("destination", dst),
		logger.String("category", req.Category))

	return dst, nil
}
