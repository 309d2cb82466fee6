package jobs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/plate"
	"github.com/wonny/qpcr/internal/report"
	"github.com/wonny/qpcr/internal/s0_ingest"
	"github.com/wonny/qpcr/internal/s3_polysome"
	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/logger"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
)

// InboxJob analyses plate exports dropped into the inbox directory
// ⭐ SSOT: inbox 처리 스케줄은 이 Job에서만
//
// 스키마별 기본 분석:
//   - condition → tidy table
//   - dilution  → tidy + efficiency (all genes)
//   - fraction  → tidy + profile (every gene/condition)
type InboxJob struct {
	config  *config.Config
	runRepo contracts.RunRepository // optional
	logger  *logger.Logger
}

// NewInboxJob creates a new inbox job. runRepo may be nil.
func NewInboxJob(cfg *config.Config, runRepo contracts.RunRepository, log *logger.Logger) *InboxJob {
	return &InboxJob{
		config:  cfg,
		runRepo: runRepo,
		logger:  log,
	}
}

// Name returns the job name
func (j *InboxJob) Name() string {
	return "inbox"
}

// Schedule returns the cron schedule (INBOX_SCHEDULE, default every 5 minutes)
func (j *InboxJob) Schedule() string {
	return j.config.Inbox.Schedule
}

// Run processes every *.csv / *.tsv file in the inbox.
// Files with bad data move to failed/ with a .err note and do not fail the
// job; filesystem errors do (so the scheduler retries).
func (j *InboxJob) Run(ctx context.Context) error {
	inDir := j.config.Inbox.Dir
	for _, dir := range []string{j.config.Inbox.OutDir, filepath.Join(inDir, processedDir), filepath.Join(inDir, failedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	files, err := j.pending()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		j.logger.Debug("Inbox empty")
		return nil
	}

	j.logger.WithField("files", len(files)).Info("Processing inbox")

	var processed, failed int
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		out, err := j.process(ctx, path)
		if err != nil {
			if !rejectable(err) {
				return fmt.Errorf("process %s: %w", filepath.Base(path), err)
			}

			j.logger.WithError(err).WithField("file", filepath.Base(path)).Warn("Inbox file rejected")
			if err := j.reject(path, err); err != nil {
				return err
			}
			failed++
			continue
		}

		if _, err := moveInto(path, filepath.Join(inDir, processedDir)); err != nil {
			return err
		}
		j.logger.WithFields(map[string]interface{}{
			"file":   filepath.Base(path),
			"output": out,
		}).Info("Inbox file processed")
		processed++
	}

	j.logger.WithFields(map[string]interface{}{
		"processed": processed,
		"failed":    failed,
	}).Info("Inbox run completed")

	return nil
}

// pending lists inbox files, oldest name first
func (j *InboxJob) pending() ([]string, error) {
	entries, err := os.ReadDir(j.config.Inbox.Dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".tsv":
			files = append(files, filepath.Join(j.config.Inbox.Dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// process runs the default analysis of the file's schema and writes the
// result tables to the outbox. Returns the output path.
func (j *InboxJob) process(ctx context.Context, path string) (string, error) {
	schema, rows, err := pipeline.LoadFile(path, "")
	if err != nil {
		return "", err
	}

	stages := []contracts.Stage{contracts.StageIngest}
	tables := []report.Table{report.TidyTable(schema, rows)}
	run := &contracts.Run{
		AssayID: assayIDFromFile(path),
		Source:  "inbox",
	}

	switch schema {
	case contracts.SchemaDilution:
		effs, err := pipeline.Efficiencies(ctx, rows, s0_ingest.Genes(rows))
		if err != nil {
			return "", err
		}
		tables = append(tables, report.EfficiencyTable(effs))
		stages = append(stages, contracts.StageEfficiency)
		for _, e := range effs {
			run.Efficiencies = append(run.Efficiencies, *e)
		}

	case contracts.SchemaFraction:
		profiles, err := s3_polysome.ProfileAll(rows)
		if err != nil {
			return "", err
		}
		tables = append(tables, report.PolysomeTable(profiles...))
		stages = append(stages, contracts.StagePolysome)
		for _, p := range profiles {
			run.Profiles = append(run.Profiles, *p)
		}
	}

	out, err := j.writeTables(path, tables)
	if err != nil {
		return "", err
	}

	if j.runRepo != nil {
		run.Stages = stages
		id, err := j.runRepo.SaveRun(ctx, run)
		if err != nil {
			return "", fmt.Errorf("save run: %w", err)
		}
		j.logger.WithFields(map[string]interface{}{
			"run_id": id,
			"file":   filepath.Base(path),
		}).Debug("Inbox run saved")
	}

	return out, nil
}

// writeTables writes to a temp file first so readers never see half a report
func (j *InboxJob) writeTables(src string, tables []report.Table) (string, error) {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + "_results" + extension(j.config.OutputFormat)
	dst := filepath.Join(j.config.Inbox.OutDir, name)

	tmp, err := os.CreateTemp(j.config.Inbox.OutDir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := report.Write(j.config.OutputFormat, tmp, tables...); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	return dst, nil
}

func (j *InboxJob) reject(path string, cause error) error {
	dst, err := moveInto(path, filepath.Join(j.config.Inbox.Dir, failedDir))
	if err != nil {
		return err
	}
	note := dst + ".err"
	if err := os.WriteFile(note, []byte(cause.Error()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(note), err)
	}
	return nil
}

// moveInto moves path into dir, suffixing a timestamp when the name is taken
func moveInto(path, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = strings.TrimSuffix(dst, ext) + "." + time.Now().Format("20060102T150405.000") + ext
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	return dst, nil
}

// rejectable reports whether err is about the file's content rather than the filesystem
func rejectable(err error) bool {
	var parseErr *csv.ParseError
	return contracts.IsInputError(err) || errors.Is(err, plate.ErrNoHeader) || errors.As(err, &parseErr)
}

func extension(format string) string {
	switch format {
	case "json":
		return ".json"
	case "text":
		return ".txt"
	default:
		return ".csv"
	}
}

// assayIDFromFile keeps the characters an assay id allows
func assayIDFromFile(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, base)
	if id == "" {
		return "inbox"
	}
	return id
}
