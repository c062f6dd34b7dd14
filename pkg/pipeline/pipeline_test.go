package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/errors"
)

const diamondLock = `{
	"name": "demo",
	"version": "0.1.0",
	"lockfileVersion": 3,
	"packages": {
		"": {"name": "demo", "dependencies": {"a": "^1", "c": "^1"}},
		"node_modules/a": {"version": "1.0.0", "dependencies": {"b": "^2"}},
		"node_modules/b": {"version": "2.0.0"},
		"node_modules/c": {"version": "1.0.0", "dependencies": {"b": "^2"}}
	}
}`

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(&bytes.Buffer{}))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"svg", false},
		{"dot", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	a, err := quietRunner(nil).Analyze(context.Background(), []byte(diamondLock), Options{Source: "lock.json"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if a.ID == "" {
		t.Error("analysis has no ID")
	}
	if a.Name != "demo" || a.Version != "0.1.0" || a.LockfileVersion != 3 || a.Source != "lock.json" {
		t.Errorf("metadata = %q %q %d %q", a.Name, a.Version, a.LockfileVersion, a.Source)
	}
	if a.Stats.Packages != 3 || a.Stats.Direct != 2 || a.Stats.Edges != 2 {
		t.Errorf("stats = %+v", a.Stats)
	}

	b, ok := a.Graph().Node("b@2.0.0")
	if !ok || b.FanIn != 2 || b.RiskScore != 5.0 {
		t.Errorf("b = %+v", b)
	}
}

func TestAnalyzeInvalid(t *testing.T) {
	_, err := quietRunner(nil).Analyze(context.Background(), []byte(`{"lockfileVersion": 1}`), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidLockfile) {
		t.Errorf("error = %v, want INVALID_LOCKFILE", err)
	}
}

func TestSimulate(t *testing.T) {
	ctx := context.Background()
	a, err := quietRunner(nil).Analyze(ctx, []byte(diamondLock), Options{})
	if err != nil {
		t.Fatal(err)
	}

	sim, err := a.Simulate(ctx, "b@2.0.0")
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if sim.ImpactedCount != 2 || !slices.Equal(sim.ImpactedPackages, []string{"a@1.0.0", "c@1.0.0"}) {
		t.Errorf("sim = %+v", sim)
	}

	sim, err = a.Simulate(ctx, "a@1.0.0")
	if err != nil || sim.ImpactedCount != 0 {
		t.Errorf("root-level package: %+v %v", sim, err)
	}

	_, err = a.Simulate(ctx, "nope@0.0.0")
	if !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("unknown target error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestSimulateConcurrent(t *testing.T) {
	ctx := context.Background()
	a, err := quietRunner(nil).Analyze(ctx, []byte(diamondLock), Options{})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim, err := a.Simulate(ctx, "b@2.0.0")
			if err != nil || sim.ImpactedCount != 2 {
				t.Errorf("concurrent Simulate = %+v %v", sim, err)
			}
		}()
	}
	wg.Wait()
}

func TestAnalysesAreIndependent(t *testing.T) {
	ctx := context.Background()
	r := quietRunner(nil)
	a1, _ := r.Analyze(ctx, []byte(diamondLock), Options{})
	a2, _ := r.Analyze(ctx, []byte(`{"packages": {"": {}}}`), Options{})

	if a1.ID == a2.ID {
		t.Error("analyses share an ID")
	}
	if a1.Graph().Len() != 3 || a2.Graph().Len() != 0 {
		t.Errorf("graphs leaked between analyses: %d, %d", a1.Graph().Len(), a2.Graph().Len())
	}
}

func TestSummary(t *testing.T) {
	a, _ := quietRunner(nil).Analyze(context.Background(), []byte(diamondLock), Options{})
	s := a.Summary(1)
	if s.TotalPackages != 3 || s.DirectPackages != 2 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.TopRisk) != 1 || s.TopRisk[0].Name != "b@2.0.0" {
		t.Errorf("top risk = %+v", s.TopRisk)
	}
}

func TestLoadExport(t *testing.T) {
	ctx := context.Background()
	r := quietRunner(nil)
	a, err := r.Analyze(ctx, []byte(diamondLock), Options{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := a.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if IsLockfile(buf.Bytes()) {
		t.Fatal("export detected as lockfile")
	}

	loaded, err := r.Load(ctx, buf.Bytes(), Options{Source: "export.json"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.Stats.FromExport {
		t.Error("FromExport not set")
	}
	if !slices.Equal(loaded.Graph().Keys(), a.Graph().Keys()) {
		t.Errorf("keys = %v, want %v", loaded.Graph().Keys(), a.Graph().Keys())
	}
	sim, err := loaded.Simulate(ctx, "b@2.0.0")
	if err != nil || sim.ImpactedCount != 2 {
		t.Errorf("simulate on loaded export = %+v %v", sim, err)
	}
}

func TestLoadFileLockfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "package-lock.json")
	if err := os.WriteFile(path, []byte(diamondLock), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := quietRunner(nil).LoadFile(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if a.Source != "package-lock.json" || a.Stats.FromExport {
		t.Errorf("source %q fromExport %v", a.Source, a.Stats.FromExport)
	}

	_, err = quietRunner(nil).AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestRenderDOT(t *testing.T) {
	ctx := context.Background()
	r := quietRunner(nil)
	a, _ := r.Analyze(ctx, []byte(diamondLock), Options{})

	out, err := r.Render(ctx, a, FormatDOT, RenderOptions{Target: "b@2.0.0"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), "penwidth=4") {
		t.Errorf("target not highlighted:\n%s", out)
	}

	if _, err := r.Render(ctx, a, FormatDOT, RenderOptions{Target: "ghost@1.0.0"}); !errors.Is(err, errors.ErrCodePackageNotFound) {
		t.Errorf("unknown target error = %v", err)
	}
	if _, err := r.Render(ctx, a, "png", RenderOptions{}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format error = %v", err)
	}
}

func TestRenderSVGCached(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz render is slow")
	}
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	a, _ := r.Analyze(ctx, []byte(diamondLock), Options{})

	svg, hit, err := r.RenderSVG(ctx, a, RenderOptions{})
	if err != nil || hit {
		t.Fatalf("first render: hit %v err %v", hit, err)
	}
	again, hit, err := r.RenderSVG(ctx, a, RenderOptions{})
	if err != nil || !hit {
		t.Fatalf("second render: hit %v err %v", hit, err)
	}
	if !bytes.Equal(svg, again) {
		t.Error("cached SVG differs")
	}
}
