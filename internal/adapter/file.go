package adapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hejijunhao/sawmill/internal/model"
)

// LoadFile reads one source file and builds its file-mtime timestamp
// candidate, the lowest-priority real candidate class.
func LoadFile(ctx context.Context, path string) ([]byte, model.TimestampCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.TimestampCandidate{}, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, model.TimestampCandidate{}, fmt.Errorf("read source file %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, model.TimestampCandidate{}, fmt.Errorf("stat source file %s: %w", path, err)
	}
	mtime := model.TimestampCandidate{
		Class: model.ClassFileMtime,
		Value: info.ModTime().UTC().Format(time.RFC3339Nano),
	}
	return content, mtime, nil
}
