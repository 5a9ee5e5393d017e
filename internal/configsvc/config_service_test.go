package configsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

type testConfig struct {
	Interval int    `json:"interval"`
	Name     string `json:"name"`
}

func startService(t *testing.T) *Service {
	t.Helper()
	svc := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Start(ctx)
	select {
	case <-svc.Ready():
	case <-time.After(time.Second):
		t.Fatal("service did not become ready")
	}
	return svc
}

func TestRegisterReadsInitialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte("interval: 5\nname: pump\n"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := startService(t)
	cfg, err := Register(svc, path, testConfig{Interval: 1}, func(testConfig, error) {})
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if cfg.Interval != 5 || cfg.Name != "pump" {
		t.Errorf("config = %+v, want interval 5 name pump", cfg)
	}
}

func TestRegisterMissingFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "absent.yaml")

	svc := startService(t)
	updates := make(chan testConfig, 1)
	cfg, err := Register(svc, path, testConfig{Interval: 3}, func(c testConfig, err error) {
		if err == nil {
			updates <- c
		}
	})
	if err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if cfg.Interval != 3 {
		t.Errorf("default interval = %d, want 3", cfg.Interval)
	}

	// Creating the file later delivers the parsed value.
	if err := os.WriteFile(path, []byte("interval: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-updates:
		if c.Interval != 7 {
			t.Errorf("updated interval = %d, want 7", c.Interval)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update after the file was created")
	}
}

func TestRegisterNotifiesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte("interval: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := startService(t)
	updates := make(chan testConfig, 1)
	if _, err := Register(svc, path, testConfig{}, func(c testConfig, err error) {
		if err == nil {
			updates <- c
		}
	}); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	if err := os.WriteFile(path, []byte("interval: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case c := <-updates:
		if c.Interval != 9 {
			t.Errorf("updated interval = %d, want 9", c.Interval)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update after rewrite")
	}
}
