package engines

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
)

const persistTimeout = 10 * time.Second

// record saves a history row for res. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, req engine.Request, res engine.Result, extra runs.Run) {
	if s.History == nil {
		return
	}
	// the caller's deadline may already be spent on the engine itself
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	r := extra
	r.ID = runs.RunID(res.RunID)
	r.StartedAt = s.now().Add(-res.WallTime).UTC()
	r.Engine = req.Kind
	r.Plugin = req.Plugin
	r.ImagePath = req.ImagePath
	r.Mode = res.Mode
	r.Status = res.Status
	r.ExitCode = res.ExitCode
	r.RecordCount = len(res.Records)
	r.DurationMS = res.WallTime.Milliseconds()
	if res.Error != nil {
		r.Error = res.Error.Error()
	}
	if r.Status == "" {
		r.Status = runs.StatusRejected
	}

	if err := s.History.Save(ctx, &r); err != nil {
		s.log().Error("failed to save run history", "run_id", res.RunID, "error", err)
	}
}

// mirror uploads files to the artifact store and returns their URLs. Upload
// failures are logged and skipped.
func (s *Service) mirror(ctx context.Context, req engine.Request, runID string, files []string) []string {
	if s.Artifacts == nil || len(files) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout*time.Duration(len(files)))
	defer cancel()

	var urls []string
	for _, f := range files {
		key := ArtifactKey(req.ImagePath, runID, filepath.Base(f))
		url, err := s.Artifacts.Upload(ctx, f, key)
		if err != nil {
			s.log().Warn("artifact upload failed", "run_id", runID, "path", f, "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// ArtifactKey is <image base>/<run id>/<file>.
func ArtifactKey(imagePath, runID, file string) string {
	return fmt.Sprintf("%s/%s/%s", imageBase(imagePath), runID, file)
}
