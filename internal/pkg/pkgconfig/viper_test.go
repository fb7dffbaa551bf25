package pkgconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestViperValues(t *testing.T) {
	path := writeConfigFile(t, "server:\n  max_upload_mb: 32\n  rate_limit:\n    rps: 2.5\n"+
		"pipeline:\n  day_first: true\n  timestamp_layouts: \"2006-01-02, ,01/02/2006 15:04\"\n"+
		"store:\n  driver: sqlite\n")

	var cfg Config
	cfg, err := NewViper(path, nil)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	if got := cfg.GetInt("server.max_upload_mb"); got != 32 {
		t.Fatalf("GetInt: expected 32, got %d", got)
	}
	if got := cfg.GetFloat("server.rate_limit.rps"); got != 2.5 {
		t.Fatalf("GetFloat: expected 2.5, got %v", got)
	}
	if got := cfg.GetBool("pipeline.day_first"); !got {
		t.Fatalf("GetBool: expected true")
	}
	if got := cfg.GetString("store.driver"); got != "sqlite" {
		t.Fatalf("GetString: expected sqlite, got %q", got)
	}
	want := []string{"2006-01-02", "01/02/2006 15:04"}
	if got := cfg.GetArray("pipeline.timestamp_layouts"); !reflect.DeepEqual(got, want) {
		t.Fatalf("GetArray: unexpected value: %#v", got)
	}
}

func TestViperArrayFromList(t *testing.T) {
	path := writeConfigFile(t, "layouts:\n  - \"2006-01-02\"\n  - \"20060102\"\n")
	cfg, err := NewViper(path, nil)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	want := []string{"2006-01-02", "20060102"}
	if got := cfg.GetArray("layouts"); !reflect.DeepEqual(got, want) {
		t.Fatalf("GetArray: unexpected value: %#v", got)
	}
	if got := cfg.GetArray("missing"); len(got) != 0 {
		t.Fatalf("GetArray: expected empty, got %#v", got)
	}
}

func TestViperDefaultsAndEnv(t *testing.T) {
	path := writeConfigFile(t, "export:\n  folder: ./out\n")
	t.Setenv("EXPORT_FOLDER", "/data/exports")

	cfg, err := NewViper(path, map[string]any{
		"export.timestamp_layout": "01/02/2006 15:04",
		"export.folder":           "./default",
	})
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetString("export.timestamp_layout"); got != "01/02/2006 15:04" {
		t.Fatalf("expected default layout, got %q", got)
	}
	if got := cfg.GetString("export.folder"); got != "/data/exports" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestViperMissingFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
