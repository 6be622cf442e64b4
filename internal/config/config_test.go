package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, info, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.Path != "" || info.PortSpecified {
		t.Fatalf("info = %+v, want empty", info)
	}
	if cfg.Server.Port != 8501 || cfg.Data.DBPath != MemoryDB {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Rules.SummaryMarker != "합계" || cfg.Rules.MergePolicy != model.MergeAppend {
		t.Fatalf("default rules not applied: %+v", cfg.Rules)
	}
	if cfg.Reconcile.TopLimit != 20 {
		t.Fatalf("top limit = %d, want 20", cfg.Reconcile.TopLimit)
	}
}

func TestLoadConfigFrom_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[server]
port = 9000
dev_mode = true

[data]
db_path = "sales.db"

[rules]
summary_match = "exact"
merge_policy = "replace"
plan_file_hints = ["PLAN"]

[rules.natural_keys]
actual = ["매출번호"]

[rules.view]
actual_amount = "매출금액"

[reconcile]
top_limit = 5
common_keys = ["매출처"]
`)

	cfg, info, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.Path != path || !info.PortSpecified {
		t.Fatalf("info = %+v", info)
	}
	if cfg.Server.Port != 9000 || !cfg.Server.DevMode || cfg.Server.Host != "127.0.0.1" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Rules.SummaryMatch != model.MatchExact || cfg.Rules.MergePolicy != model.MergeReplace {
		t.Fatalf("rules = %+v", cfg.Rules)
	}
	if !reflect.DeepEqual(cfg.Rules.PlanFileHints, []string{"PLAN"}) {
		t.Fatalf("plan hints = %v", cfg.Rules.PlanFileHints)
	}
	if got := cfg.Rules.NaturalKey(model.PartitionActual); !reflect.DeepEqual(got, []string{"매출번호"}) {
		t.Fatalf("natural key = %v", got)
	}
	if cfg.Rules.View.ActualAmount != "매출금액" || cfg.Rules.View.PlanAmount != "판매금액" {
		t.Fatalf("view columns = %+v", cfg.Rules.View)
	}
	if cfg.Reconcile.TopLimit != 5 || !reflect.DeepEqual(cfg.Reconcile.CommonKeys, []string{"매출처"}) {
		t.Fatalf("reconcile = %+v", cfg.Reconcile)
	}
	// 未出现的字段保留默认值
	if cfg.Rules.DiscriminatorField != "수익성계획전표번호" {
		t.Fatalf("discriminator = %q", cfg.Rules.DiscriminatorField)
	}
}

func TestLoadConfigFrom_FileMapsReplaceDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[rules.plan_rename_map]
"품목코드" = "품목"
`)

	cfg, _, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]string{"품목코드": "품목"}
	if !reflect.DeepEqual(cfg.Rules.PlanRenameMap, want) {
		t.Fatalf("plan rename map = %v, want %v", cfg.Rules.PlanRenameMap, want)
	}

	// 文件未出现的映射表保持默认值
	defaults := model.DefaultRules()
	if !reflect.DeepEqual(cfg.Rules.NaturalKeys, defaults.NaturalKeys) {
		t.Fatalf("natural keys = %v, want defaults %v", cfg.Rules.NaturalKeys, defaults.NaturalKeys)
	}

	cfg, _, err = LoadConfigFrom(writeConfig(t, "[rules]\nmerge_policy = \"append\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Rules.PlanRenameMap, defaults.PlanRenameMap) {
		t.Fatalf("plan rename map = %v, want defaults", cfg.Rules.PlanRenameMap)
	}
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"summary match", "[rules]\nsummary_match = \"fuzzy\"\n", "summary_match"},
		{"merge policy", "[rules]\nmerge_policy = \"upsert\"\n", "merge_policy"},
		{"port", "[server]\nport = 70000\n", "port"},
		{"syntax", "[server\n", "parse"},
	}
	for _, tt := range tests {
		_, _, err := LoadConfigFrom(writeConfig(t, tt.body))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: err = %v, want containing %q", tt.name, err, tt.want)
		}
	}
}

func TestLoadConfigFrom_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "8600")
	t.Setenv(EnvDB, "/tmp/override.db")
	t.Setenv(EnvMergePolicy, "REPLACE")

	cfg, info, err := LoadConfigFrom(writeConfig(t, "[server]\nport = 9000\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8600 || !info.PortSpecified {
		t.Fatalf("port = %d specified=%v", cfg.Server.Port, info.PortSpecified)
	}
	if cfg.Data.DBPath != "/tmp/override.db" {
		t.Fatalf("db path = %s", cfg.Data.DBPath)
	}
	if cfg.Rules.MergePolicy != model.MergeReplace {
		t.Fatalf("merge policy = %s", cfg.Rules.MergePolicy)
	}
}

func TestLoadConfigFrom_InvalidEnvPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")

	if _, _, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected invalid port error")
	}
}

func TestDatabasePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Data.DataDir = dir

	if got := DatabasePath(cfg); got != MemoryDB {
		t.Fatalf("default path = %s, want %s", got, MemoryDB)
	}

	cfg.Data.DBPath = "sales.db"
	if got := DatabasePath(cfg); got != filepath.Join(dir, "sales.db") {
		t.Fatalf("relative path = %s", got)
	}

	abs := filepath.Join(dir, "abs", "x.db")
	cfg.Data.DBPath = abs
	if got := DatabasePath(cfg); got != abs {
		t.Fatalf("absolute path = %s", got)
	}
}

func TestEnsureDataDir(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	dir, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "exports")); err != nil {
		t.Fatalf("exports dir: %v", err)
	}
	if got := GetDataPath(cfg, "exports", "a.xlsx"); got != filepath.Join(dir, "exports", "a.xlsx") {
		t.Fatalf("data path = %s", got)
	}
}

func TestSaveConfigTo_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Server.Port = 9100
	cfg.Rules.SummaryMatch = model.MatchExact
	cfg.Rules.NaturalKeys = map[string][]string{"plan": {"계획년월", "품목"}}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveConfigTo(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, info, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !info.PortSpecified || loaded.Server.Port != 9100 {
		t.Fatalf("port = %d specified=%v", loaded.Server.Port, info.PortSpecified)
	}
	if !reflect.DeepEqual(loaded.Rules.PlanRenameMap, cfg.Rules.PlanRenameMap) {
		t.Fatalf("rename map = %v", loaded.Rules.PlanRenameMap)
	}
	if got := loaded.Rules.NaturalKey(model.PartitionPlan); !reflect.DeepEqual(got, []string{"계획년월", "품목"}) {
		t.Fatalf("natural key = %v", got)
	}
	if loaded.Rules.SummaryMatch != model.MatchExact || loaded.Rules.View != cfg.Rules.View {
		t.Fatalf("rules = %+v", loaded.Rules)
	}
}
