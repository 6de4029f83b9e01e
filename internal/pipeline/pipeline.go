package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/relforge/relgate/internal/archive"
	"github.com/relforge/relgate/internal/sources"
	"github.com/relforge/relgate/internal/staging"
	"github.com/relforge/relgate/pkg/telemetry"
)

// SourceFetcher materializes one source on disk at its pinned revision.
type SourceFetcher interface {
	Fetch(ctx context.Context, spec sources.SourceSpec) (dir string, cleanup func(), err error)
}

// Scanner runs the external license scanner against one manifest.
type Scanner interface {
	Scan(ctx context.Context, manifestPath, clarificationFile, outputDir string) error
}

// SourceRecord is one line of the attribution manifest for the run report.
type SourceRecord struct {
	Name     string `json:"name"`
	Origin   string `json:"origin"`
	Revision string `json:"revision,omitempty"`
	Files    int    `json:"files"`
}

// Pipeline drives fetch -> scan -> copy for each source in order, then
// packages the staging tree into the attribution archive. Execution is
// strictly sequential and aborts on the first error: a consumer must never
// mistake a partial bundle for a complete one.
type Pipeline struct {
	Fetcher SourceFetcher
	Scanner Scanner

	// StagingRoot is created fresh for every run and exclusively owned by it.
	StagingRoot string
	// ArchivePath is the fixed, caller-visible output path.
	ArchivePath string
	// ClarifyFile is passed unmodified to every scan; its format is owned by
	// the scanner.
	ClarifyFile string

	Logger *slog.Logger
	tracer trace.Tracer
}

func New(fetcher SourceFetcher, scanner Scanner, stagingRoot, archivePath, clarifyFile string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		Fetcher:     fetcher,
		Scanner:     scanner,
		StagingRoot: stagingRoot,
		ArchivePath: archivePath,
		ClarifyFile: clarifyFile,
		Logger:      logger,
		tracer:      telemetry.Tracer("relgate/pipeline"),
	}
}

// Run produces one attribution archive for the given sources file and
// returns its path plus the per-source manifest. Validation of every spec
// happens up front so an unpinned remote is rejected before any network
// access.
func (p *Pipeline) Run(ctx context.Context, f *sources.File) (string, []SourceRecord, error) {
	if err := f.Validate(); err != nil {
		return "", nil, err
	}

	tree, err := staging.New(p.StagingRoot)
	if err != nil {
		return "", nil, err
	}

	records := make([]SourceRecord, 0, len(f.Sources))
	for _, spec := range f.Sources {
		// Cancellation is honored at step boundaries only; the external
		// tools own their lifetimes mid-step.
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		rec, err := p.runSource(ctx, tree, spec)
		if err != nil {
			return "", nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		records = append(records, rec)
	}

	if err := tree.CopyProjectLicenses(f.Project.Dir, f.Project.LicenseFiles); err != nil {
		return "", nil, err
	}

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	if err := archive.Build(tree, p.ArchivePath); err != nil {
		return "", nil, err
	}

	p.Logger.Info("attribution archive written", "path", p.ArchivePath, "sources", len(records))
	return p.ArchivePath, records, nil
}

func (p *Pipeline) runSource(ctx context.Context, tree *staging.Tree, spec sources.SourceSpec) (SourceRecord, error) {
	ctx, span := p.tracer.Start(ctx, "attribution.source",
		trace.WithAttributes(attribute.String("source.name", spec.Name)))
	defer span.End()

	srcDir, cleanup, err := p.Fetcher.Fetch(ctx, spec)
	if err != nil {
		return SourceRecord{}, err
	}
	defer cleanup()

	vendorDir, err := tree.VendorDir(spec.Name)
	if err != nil {
		return SourceRecord{}, err
	}
	manifest := filepath.Join(srcDir, spec.ManifestPath)
	if err := p.Scanner.Scan(ctx, manifest, p.ClarifyFile, vendorDir); err != nil {
		return SourceRecord{}, err
	}

	if err := tree.CopyExtraFiles(spec.Name, srcDir, spec.ExtraLicenseFiles); err != nil {
		return SourceRecord{}, err
	}

	files, err := tree.FileCount(spec.Name)
	if err != nil {
		return SourceRecord{}, err
	}
	p.Logger.Info("source attributed", "name", spec.Name, "files", files)

	return SourceRecord{
		Name:     spec.Name,
		Origin:   spec.Origin,
		Revision: spec.PinnedRevision,
		Files:    files,
	}, nil
}
