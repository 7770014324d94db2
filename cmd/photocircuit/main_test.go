package main

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ironsheep/photocircuit/internal/config"
	"github.com/ironsheep/photocircuit/internal/fixtures"
	"github.com/ironsheep/photocircuit/internal/imaging"
)

func TestParseInts(t *testing.T) {
	def := []int{1, 2}
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", def, false},
		{"  ", def, false},
		{"500,600", []int{500, 600}, false},
		{" 5, 10 ,15", []int{5, 10, 15}, false},
		{"5,x", nil, true},
		{"0", nil, true},
		{"-5", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseInts(tt.in, def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseInts(%q) error: got %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseInts(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvaluatorOptions(t *testing.T) {
	cfg := &config.Config{
		TargetSize:    500,
		Thicken:       true,
		GridBase:      60,
		IncludeGrid:   true,
		DetectPasses:  3,
		DetectTimeout: 10 * time.Second,
		Workers:       2,
	}

	opts, err := evaluatorOptions(cfg)
	if err != nil {
		t.Fatalf("evaluatorOptions failed: %v", err)
	}
	if len(opts.Preprocess) != 2 {
		t.Fatalf("chain length: got %d, want 2", len(opts.Preprocess))
	}
	if _, ok := opts.Preprocess[0].(imaging.Scale); !ok {
		t.Errorf("first step: got %T, want imaging.Scale", opts.Preprocess[0])
	}
	if opts.Timeout != 30*time.Second {
		t.Errorf("timeout: got %v, want 30s", opts.Timeout)
	}
	if opts.GridBase != 60 || !opts.IncludeGrid || opts.Workers != 2 {
		t.Errorf("options: got %+v", opts)
	}
}

func TestBuildDetector(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"command", config.Config{RecognizerCmd: "recognize --yaml", DetectPasses: 1, DetectTimeout: time.Second}},
		{"http", config.Config{RecognizerURL: "http://localhost:8000/predict", DetectPasses: 2, DetectTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := buildDetector(&tt.cfg)
			if err != nil {
				t.Fatalf("buildDetector failed: %v", err)
			}
			if det == nil {
				t.Fatal("buildDetector returned nil")
			}
		})
	}
}

func TestFixtureSource_Dir(t *testing.T) {
	src, err := fixtureSource(&config.Config{FixturesDir: "test/test_data"})
	if err != nil {
		t.Fatalf("fixtureSource failed: %v", err)
	}
	if _, ok := src.(*fixtures.DirSource); !ok {
		t.Errorf("source: got %T, want *fixtures.DirSource", src)
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeOutput(path, func(w io.Writer) error {
		_, err := w.Write([]byte("rows"))
		return err
	})
	if err != nil {
		t.Fatalf("writeOutput failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rows" {
		t.Errorf("content: got %q, want rows", data)
	}
}
