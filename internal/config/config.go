package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
)

// 环境变量
const (
	EnvDB          = "EXCELTODB_DB"
	EnvPort        = "EXCELTODB_PORT"
	EnvDataDir     = "EXCELTODB_DATA_DIR"
	EnvMergePolicy = "EXCELTODB_MERGE_POLICY"
)

// MemoryDB 易失存储：进程退出即丢弃
const MemoryDB = ":memory:"

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Rules     model.Rules     `toml:"rules"`
	Reconcile ReconcileConfig `toml:"reconcile"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int    `toml:"port"`
	Host    string `toml:"host"`
	DevMode bool   `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	DBPath  string `toml:"db_path"` // ":memory:" 或相对 data_dir 的文件路径
}

// ReconcileConfig 汇总视图配置
type ReconcileConfig struct {
	TopLimit   int      `toml:"top_limit"`
	CommonKeys []string `toml:"common_keys"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port: 8501,
			Host: "127.0.0.1",
		},
		Data: DataConfig{
			DataDir: "data",
			DBPath:  MemoryDB,
		},
		Rules: model.DefaultRules(),
		Reconcile: ReconcileConfig{
			TopLimit:   20,
			CommonKeys: []string{"매출처", "품목", "품목명"},
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}
	serverMap, ok := raw["server"].(map[string]any)
	if !ok {
		return false
	}
	_, ok = serverMap["port"]
	return ok
}

// resetFileMaps 文件中出现的映射表整体替换默认值（toml 解码到已有 map 时按键合并）
func resetFileMaps(data []byte, config *AppConfig) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return
	}
	rules, ok := raw["rules"].(map[string]any)
	if !ok {
		return
	}
	if _, ok := rules["plan_rename_map"]; ok {
		config.Rules.PlanRenameMap = nil
	}
	if _, ok := rules["natural_keys"]; ok {
		config.Rules.NaturalKeys = nil
	}
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 加载可执行文件同目录下的 config.toml 与工作目录下的 .env
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	// .env 可选，不存在时忽略
	_ = godotenv.Load()
	return LoadConfigFrom(filepath.Join(exeDir, "config.toml"))
}

// LoadConfigFrom 从指定路径加载配置；文件不存在时使用默认配置
// 环境变量优先于文件
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		resetFileMaps(data, config)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		info.Path = ""
	default:
		return nil, info, err
	}

	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖
func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		config.Data.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := strings.TrimSpace(os.Getenv(EnvMergePolicy)); v != "" {
		config.Rules.MergePolicy = model.MergePolicy(strings.ToLower(v))
	}
	return nil
}

// Validate 校验配置
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	return nil
}

// SaveConfig 保存配置到可执行文件同目录下的 config.toml
func SaveConfig(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	path := filepath.Join(exeDir, "config.toml")
	return path, SaveConfigTo(path, config)
}

// SaveConfigTo 保存配置到指定路径
func SaveConfigTo(path string, config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录的绝对路径；相对路径以可执行文件目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及 exports 子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)
	if err := os.MkdirAll(filepath.Join(dataDir, "exports"), 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DatabasePath 数据库路径；":memory:" 原样返回
func DatabasePath(config *AppConfig) string {
	p := strings.TrimSpace(config.Data.DBPath)
	if p == "" || p == MemoryDB {
		return MemoryDB
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ResolveDataDir(config), p)
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
