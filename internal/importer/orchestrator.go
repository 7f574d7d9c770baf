package importer

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/parser"
	"github.com/p-n-ai/pai-content/internal/spreadsheet"
)

// DefaultCachePrefix is the key prefix of cached API responses.
const DefaultCachePrefix = "api:"

// History records the outcome of every processed file.
type History interface {
	RecordImport(ctx context.Context, run *curriculum.ImportRun) error
}

// Invalidator drops cached entries after content changes.
type Invalidator interface {
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// OrchestratorConfig wires an Orchestrator. History and Cache are optional.
type OrchestratorConfig struct {
	Scanner     *Scanner
	Importer    *Importer
	History     History
	Cache       Invalidator
	CachePrefix string // default DefaultCachePrefix
}

// Orchestrator runs scan, parse and import for each file in turn.
type Orchestrator struct {
	scanner     *Scanner
	importer    *Importer
	history     History
	cache       Invalidator
	cachePrefix string
}

// Summary aggregates one run. Results are in discovery order.
type Summary struct {
	TotalFiles   int      `json:"totalFiles" yaml:"totalFiles"`
	SuccessCount int      `json:"successCount" yaml:"successCount"`
	FailureCount int      `json:"failureCount" yaml:"failureCount"`
	Results      []Result `json:"results" yaml:"results"`
}

// NewOrchestrator creates an orchestrator from cfg.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	prefix := cfg.CachePrefix
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return &Orchestrator{
		scanner:     cfg.Scanner,
		importer:    cfg.Importer,
		history:     cfg.History,
		cache:       cfg.Cache,
		cachePrefix: prefix,
	}
}

// ImportAll imports every workbook in every category. A file's failure never
// stops the run; the returned error is for discovery failures only.
func (o *Orchestrator) ImportAll(ctx context.Context) (Summary, error) {
	files, err := o.scanner.ScanAll()
	if err != nil {
		return Summary{}, err
	}
	return o.run(ctx, files), nil
}

// ImportCategory imports the workbooks of one category.
func (o *Orchestrator) ImportCategory(ctx context.Context, c Category) (Summary, error) {
	files, err := o.scanner.ScanCategory(c)
	if err != nil {
		return Summary{}, err
	}
	return o.run(ctx, files), nil
}

func (o *Orchestrator) run(ctx context.Context, files []ContentFile) Summary {
	start := time.Now()
	slog.Info("import started", "root", o.scanner.Root(), "files", len(files))

	sum := Summary{TotalFiles: len(files), Results: make([]Result, 0, len(files))}
	for _, f := range files {
		res := o.ImportFile(ctx, f)
		if res.Success {
			sum.SuccessCount++
		} else {
			sum.FailureCount++
		}
		sum.Results = append(sum.Results, res)
	}

	switch {
	case sum.SuccessCount > 0:
		o.invalidate(ctx, o.cachePrefix)
	case o.history != nil && sum.TotalFiles > 0:
		// Content is unchanged but the history grew.
		o.invalidate(ctx, o.cachePrefix+"/api/imports")
	}

	slog.Info("import finished",
		"total", sum.TotalFiles,
		"succeeded", sum.SuccessCount,
		"failed", sum.FailureCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum
}

// ImportFile parses and imports one file and records the outcome.
func (o *Orchestrator) ImportFile(ctx context.Context, f ContentFile) Result {
	slog.Info("processing file", "file", f.Name, "category", f.Category)

	res := o.importFile(ctx, f)
	res.Category = f.Category

	for _, w := range res.Warnings {
		slog.Warn("content warning", "file", f.Name, "warning", w)
	}
	if res.Success {
		slog.Info("file imported",
			"file", f.Name,
			"type", res.Type,
			"imported", res.RecordsImported,
			"updated", res.RecordsUpdated,
		)
	} else {
		slog.Error("file failed", "file", f.Name, "type", res.Type, "errors", res.Errors)
	}

	o.record(ctx, res)
	return res
}

func (o *Orchestrator) importFile(ctx context.Context, f ContentFile) Result {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return failed(f.Name, "", fmt.Sprintf("read file %q: %v", f.Name, err))
	}
	checksum := Checksum(data)

	wb, err := spreadsheet.Read(f.Name, bytes.NewReader(data))
	if err != nil {
		res := failed(f.Name, "", err.Error())
		res.Checksum = checksum
		return res
	}

	p, err := parser.New(wb)
	if err != nil {
		kind, _ := parser.Detect(wb.SheetNames())
		res := failed(f.Name, kind, err.Error())
		res.Checksum = checksum
		return res
	}

	res := o.importer.Import(ctx, f.Name, p.Parse())
	res.Checksum = checksum
	return res
}

func (o *Orchestrator) record(ctx context.Context, res Result) {
	if o.history == nil {
		return
	}
	run := &curriculum.ImportRun{
		FileName:        res.FileName,
		Category:        string(res.Category),
		Kind:            string(res.Type),
		Checksum:        res.Checksum,
		Success:         res.Success,
		RecordsImported: res.RecordsImported,
		RecordsUpdated:  res.RecordsUpdated,
		Errors:          res.Errors,
		Warnings:        res.Warnings,
	}
	if err := o.history.RecordImport(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("failed to record import", "file", res.FileName, "error", err)
	}
}

func (o *Orchestrator) invalidate(ctx context.Context, prefix string) {
	if o.cache == nil {
		return
	}
	n, err := o.cache.DeletePrefix(ctx, prefix)
	if err != nil {
		slog.Warn("failed to invalidate response cache", "prefix", prefix, "error", err)
		return
	}
	slog.Info("response cache invalidated", "prefix", prefix, "keys", n)
}

// Checksum returns the hex BLAKE2b-256 digest of data.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
