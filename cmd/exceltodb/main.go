package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spracknow-droid/Excel-to-DB/internal/config"
	"github.com/spracknow-droid/Excel-to-DB/internal/server"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
	"github.com/spracknow-droid/Excel-to-DB/internal/util"
)

const usage = `用法:
  exceltodb [serve] [-port N] [-dev] [-dataDir DIR] [-db PATH] [-no-browser]
  exceltodb import [-hint plan|actual] [-policy append|replace] [-all-sheets] [-db PATH]
                   [-export out.xlsx] [-dump out.db] FILE...
  exceltodb config [-o PATH]
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "import" || args[0] == "config") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "import":
		err = runImport(args)
	case "config":
		err = runConfig(args)
	default:
		err = runServe(args)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig 加载配置；失败时退回默认配置
func loadConfig() *config.AppConfig {
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		return config.DefaultConfig()
	}
	if info.Path != "" {
		fmt.Printf("配置文件: %s\n", info.Path)
	}
	return cfg
}

// runConfig 写出当前生效的配置，便于编辑列名规则
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	out := fs.String("o", "", "输出路径，默认写到可执行文件同目录的 config.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := loadConfig()
	path := *out
	var err error
	if path == "" {
		path, err = config.SaveConfig(cfg)
	} else {
		err = config.SaveConfigTo(path, cfg)
	}
	if err != nil {
		return fmt.Errorf("保存配置失败: %w", err)
	}
	fmt.Printf("配置已写入: %s\n", path)
	return nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore 打开存储并确保数据目录存在
func openStore(cfg *config.AppConfig) (*store.Store, error) {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败: %v", err)
	} else {
		fmt.Printf("数据目录: %s\n", dataDir)
	}

	dbPath := config.DatabasePath(cfg)
	if dbPath == config.MemoryDB {
		fmt.Println("数据库: 内存（退出后数据不保留）")
	} else {
		fmt.Printf("数据库: %s\n", dbPath)
	}
	return store.New(dbPath)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	port := fs.Int("port", 0, "服务端口 (覆盖配置文件；未指定时自动避开被占用的端口)")
	devMode := fs.Bool("dev", false, "开发模式")
	dataDir := fs.String("dataDir", "", "数据目录 (覆盖配置文件)")
	dbPath := fs.String("db", "", "数据库路径，:memory: 为内存库 (覆盖配置文件)")
	noBrowser := fs.Bool("no-browser", false, "不自动打开浏览器")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Println("==========================================")
	fmt.Println("  Excel-to-DB - 판매계획 / 실적 데이터 통합")
	fmt.Println("==========================================")

	cfg := loadConfig()
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.Data.DBPath = *dbPath
	}
	if *port == 0 {
		cfg.Server.Port = util.FindAvailablePort(cfg.Server.Host, cfg.Server.Port, 20)
	}

	logger := newLogger(cfg.Server.DevMode)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	defer st.Close()

	srv := server.NewServer(cfg, st, logger)
	url := srv.URL()

	go func() {
		fmt.Printf("服务启动中，监听 %s ...\n", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	if !cfg.Server.DevMode && !*noBrowser {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
