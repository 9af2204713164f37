package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/yuya-takeyama/mdsweep/internal/checksum"
	"github.com/yuya-takeyama/mdsweep/pkg/planner"
)

// ErrDestinationExists is returned instead of overwriting a quarantined file
var ErrDestinationExists = errors.New("destination already exists")

type Executor struct {
	log    *zap.Logger
	dryRun bool
}

func NewExecutor(log *zap.Logger, dryRun bool) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		log:    log,
		dryRun: dryRun,
	}
}

type Result struct {
	Item  planner.Item
	Error error
}

// Execute runs the items one by one. A failed item is logged and recorded in
// its Result; the remaining items still run.
func (e *Executor) Execute(ctx context.Context, items []planner.Item) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Item: item, Error: err})
			continue
		}

		if e.dryRun {
			e.log.Info("(dryrun) move", zap.String("source", item.Source), zap.String("target", item.Target))
			results = append(results, Result{Item: item})
			continue
		}

		e.log.Debug("move", zap.String("source", item.Source), zap.String("target", item.Target))

		err := e.executeItem(item)
		if err != nil {
			e.log.Error("Failed to quarantine file",
				zap.String("source", item.Source),
				zap.String("target", item.Target),
				zap.Error(err))
		}

		results = append(results, Result{
			Item:  item,
			Error: err,
		})
	}

	return results
}

func (e *Executor) executeItem(item planner.Item) error {
	switch item.Action {
	case planner.ActionQuarantine:
		return moveFile(item.Source, item.Target)
	default:
		return fmt.Errorf("unknown action: %s", item.Action)
	}
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat destination: %w", err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move: %w", err)
	}

	return copyAndRemove(src, dst)
}

// copyAndRemove moves a file across devices. The source is removed only
// after the copy's checksum matches.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	tee := checksum.NewTeeReader(in)
	if _, err := io.Copy(out, tee); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close file: %w", err)
	}

	srcSum, err := tee.Checksum()
	if err != nil {
		os.Remove(dst)
		return err
	}
	dstSum, err := checksum.CalculateFile(dst)
	if err != nil {
		os.Remove(dst)
		return err
	}
	if srcSum != dstSum {
		os.Remove(dst)
		return fmt.Errorf("checksum mismatch after copy: %s != %s", srcSum, dstSum)
	}

	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to preserve modification time: %w", err)
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}
	return nil
}
