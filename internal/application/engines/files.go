package engines

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/m00que/Memforensics-MCP/internal/domain/engine"
	"github.com/m00que/Memforensics-MCP/internal/domain/runs"
	"github.com/m00que/Memforensics-MCP/internal/infra/normalize"
	"github.com/m00que/Memforensics-MCP/internal/validate"
)

// DefaultOutputFile is <dir>/<image base>_<kind>_<plugin>.<ext>, with dots in
// the plugin replaced by underscores.
func DefaultOutputFile(dir string, req engine.Request) string {
	name := fmt.Sprintf("%s_%s_%s.%s", imageBase(req.ImagePath), req.Kind,
		strings.ReplaceAll(req.Plugin, ".", "_"), req.EffectiveMode().Ext())
	return filepath.Join(dir, name)
}

// DefaultDumpDir is <dir>/<image base>_<kind>_<plugin>_dump.
func DefaultDumpDir(dir string, req engine.Request) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s_dump", imageBase(req.ImagePath), req.Kind, req.Plugin))
}

func imageBase(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "image"
	}
	return base
}

// RunToFile runs the plugin and, when it succeeds, writes stdout to
// outputFile (or the default name under OutputDir). Structured JSON output
// also gets a .csv sibling.
func (s *Service) RunToFile(ctx context.Context, req engine.Request, outputFile string) engine.FileResult {
	if outputFile == "" {
		outputFile = DefaultOutputFile(s.OutputDir, req)
	}
	req.OutputFile = outputFile

	if err := validate.Path(outputFile); err != nil {
		fr := engine.FileResult{Result: engine.Fail(req, engine.ErrorInvalidRequest, err.Error()), OutputFilePath: outputFile}
		fr.RunID = s.newID()
		return fr
	}

	res, out := s.execute(ctx, req, s.timeouts().File)
	fr := engine.FileResult{Result: res, OutputFilePath: outputFile}
	if !res.Success {
		s.record(ctx, req, fr.Result, runs.Run{OutputFile: outputFile})
		return fr
	}

	if err := writeFile(outputFile, out.Stdout); err != nil {
		s.log().Error("failed to write engine output", "run_id", res.RunID, "path", outputFile, "error", err)
		fr.Success = false
		fr.Error = &engine.ResultError{Kind: engine.ErrorWriteFailed, Message: err.Error()}
		s.record(ctx, req, fr.Result, runs.Run{OutputFile: outputFile})
		return fr
	}
	fr.ArtifactPaths = append(fr.ArtifactPaths, outputFile)

	if req.EffectiveMode() == engine.StructuredJSON {
		csvPath, err := normalize.WriteCSVSibling(outputFile)
		if err != nil {
			// plugins that print free text under --output=json land here
			s.log().Warn("csv sibling not written", "run_id", res.RunID, "path", outputFile, "error", err)
		} else {
			fr.CSVFilePath = csvPath
			fr.ArtifactPaths = append(fr.ArtifactPaths, csvPath)
		}
	}

	fr.ArtifactURLs = s.mirror(ctx, req, res.RunID, fr.ArtifactPaths)
	s.record(ctx, req, fr.Result, runs.Run{OutputFile: outputFile, CSVFile: fr.CSVFilePath})
	return fr
}

// RunToDumpDir creates dumpDir (or the default under OutputDir), points the
// engine at it and reports the directory whether or not anything was dumped.
func (s *Service) RunToDumpDir(ctx context.Context, req engine.Request, dumpDir string) engine.DumpResult {
	if dumpDir == "" {
		dumpDir = DefaultDumpDir(s.OutputDir, req)
	}
	req.DumpDir = dumpDir

	if err := validate.Path(dumpDir); err != nil {
		dr := engine.DumpResult{Result: engine.Fail(req, engine.ErrorInvalidRequest, err.Error()), DumpDirPath: dumpDir}
		dr.RunID = s.newID()
		return dr
	}
	if err := os.MkdirAll(dumpDir, 0o755); err != nil {
		dr := engine.DumpResult{Result: engine.Fail(req, engine.ErrorWriteFailed, fmt.Sprintf("create dump directory: %v", err)), DumpDirPath: dumpDir}
		dr.RunID = s.newID()
		return dr
	}

	res, _ := s.execute(ctx, req, s.timeouts().Dump)
	dr := engine.DumpResult{Result: res, DumpDirPath: dumpDir}
	dr.ArtifactPaths = []string{dumpDir}

	if s.Artifacts != nil {
		files, err := listFiles(dumpDir)
		if err != nil {
			s.log().Warn("failed to list dump directory", "run_id", res.RunID, "path", dumpDir, "error", err)
		}
		dr.ArtifactURLs = s.mirror(ctx, req, res.RunID, files)
	}
	s.record(ctx, req, dr.Result, runs.Run{DumpDir: dumpDir})
	return dr
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
