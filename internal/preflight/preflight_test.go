package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"rumormill/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDevice_OK(t *testing.T) {
	result := CheckDevice("test", "/dev/null")
	if !result.Passed {
		t.Fatalf("expected pass for /dev/null, got: %s", result.Detail)
	}
}

func TestCheckDevice_NotExist(t *testing.T) {
	result := CheckDevice("test", filepath.Join(t.TempDir(), "ttyNOPE"))
	if result.Passed {
		t.Fatal("expected failure for missing device")
	}
}

func TestCheckDevice_NotCharDevice(t *testing.T) {
	f := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDevice("test", f)
	if result.Passed {
		t.Fatal("expected failure for regular file")
	}
}

func TestCheckFile_AbsentPasses(t *testing.T) {
	result := CheckFile("test", filepath.Join(t.TempDir(), "reed"))
	if !result.Passed {
		t.Fatalf("expected pass for absent sample file, got: %s", result.Detail)
	}
}

func TestCheckFile_Readable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "reed")
	if err := os.WriteFile(f, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckFile("test", f)
	if !result.Passed {
		t.Fatalf("expected pass for readable file, got: %s", result.Detail)
	}
}

func TestCheckFile_NotRegular(t *testing.T) {
	result := CheckFile("test", t.TempDir())
	if result.Passed {
		t.Fatal("expected failure for directory path")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_DirectoriesOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Printer.Device = ""
	cfg.Trigger.Source = config.TriggerSourceNone

	results := RunAll(&cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_FileTriggerIncludesSampleFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Printer.Device = ""
	cfg.Trigger.Source = config.TriggerSourceFile
	cfg.Trigger.SampleFile = filepath.Join(cfg.Paths.StateDir, "reed")

	results := RunAll(&cfg)
	found := false
	for _, r := range results {
		if r.Name == "Sample file" {
			found = true
			if !r.Passed {
				t.Errorf("sample file check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected sample file check in results")
	}
}

func TestGPIODevicePath(t *testing.T) {
	if got := gpioDevicePath("gpiochip0"); got != "/dev/gpiochip0" {
		t.Fatalf("unexpected device path: %s", got)
	}
	if got := gpioDevicePath("/dev/gpiochip4"); got != "/dev/gpiochip4" {
		t.Fatalf("absolute path should pass through, got: %s", got)
	}
}
