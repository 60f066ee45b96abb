package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

func newPutFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "put"}
	cmd.Flags().String("entity-type", string(feature.Primary), "")
	cmd.Flags().String("data", "", "")
	cmd.Flags().String("file", "", "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestDataFromFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.json")
	if err := os.WriteFile(path, []byte(`{"age": 30, "tags": ["a"]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		stdin   string
		want    []string
		wantErr bool
	}{
		{"inline", []string{"--data", `{"age": 30}`}, "", []string{"age"}, false},
		{"file", []string{"--file", path}, "", []string{"age", "tags"}, false},
		{"stdin", []string{"--file", "-"}, `{"score": 0.5}`, []string{"score"}, false},
		{"missing", nil, "", nil, true},
		{"not an object", []string{"--data", `[1, 2]`}, "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newPutFlags(t, tt.args...)
			cmd.SetIn(strings.NewReader(tt.stdin))

			data, err := dataFromFlags(cmd)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := data.Names()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected features %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEntityFromFlags(t *testing.T) {
	cmd := newPutFlags(t, "--entity-type", "account_id")
	entity, err := entityFromFlags(cmd, "  acc-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entity.Kind != feature.Secondary || entity.ID != "acc-1" {
		t.Errorf("unexpected entity %+v", entity)
	}

	cmd = newPutFlags(t, "--entity-type", "account_pid")
	if _, err := entityFromFlags(cmd, "acc-1"); !errors.Is(err, feature.ErrInvalidEntityKind) {
		t.Errorf("expected ErrInvalidEntityKind, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), "featurestore "+Version) {
		t.Errorf("unexpected version output %q", out.String())
	}
}
