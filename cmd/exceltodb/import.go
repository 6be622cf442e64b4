package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/spracknow-droid/Excel-to-DB/internal/exporter"
	"github.com/spracknow-droid/Excel-to-DB/internal/importer"
	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/service/report"
)

// runImport 命令行批量导入，可选导出工作簿或数据库文件
func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	hintFlag := fs.String("hint", "", "分类提示 plan|actual|inferred，默认按文件名与表头识别")
	policy := fs.String("policy", "", "合并策略 append|replace (覆盖配置文件)")
	allSheets := fs.Bool("all-sheets", false, "读取工作簿的全部 sheet")
	dbPath := fs.String("db", "", "数据库路径 (覆盖配置文件)")
	exportPath := fs.String("export", "", "导入后导出 xlsx 到该路径")
	dumpPath := fs.String("dump", "", "导入后导出 SQLite 数据库到该路径")
	verbose := fs.Bool("v", false, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("缺少输入文件")
	}

	var hint model.Hint
	if *hintFlag != "" {
		h, err := model.ParseHint(*hintFlag)
		if err != nil {
			return err
		}
		hint = h
	}

	cfg := loadConfig()
	if *dbPath != "" {
		cfg.Data.DBPath = *dbPath
	}
	if *policy != "" {
		cfg.Rules.MergePolicy = model.MergePolicy(*policy)
		if err := cfg.Rules.Validate(); err != nil {
			return err
		}
	}
	logger := newLogger(*verbose)

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}
	defer st.Close()

	sources := make([]importer.Source, 0, fs.NArg())
	for _, path := range fs.Args() {
		src, err := importer.LoadSource(path, hint)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	coordinator := importer.NewCoordinator(st, cfg.Rules, logger)
	rep := coordinator.ImportSources(importer.ImportOptions{Sources: sources, AllSheets: *allSheets}, func(evt importer.ProgressEvent) {
		switch evt.Type {
		case "file_done", "warning", "error":
			fmt.Printf("[%s] %s\n", evt.Type, evt.Message)
		}
	})

	for _, p := range rep.Partitions {
		fmt.Printf("%s (%s): %d 行, %d 列\n", p.Label, p.Partition, p.Rows, len(p.Columns))
	}

	rs := report.NewService(st, cfg.Rules, logger)
	exp := exporter.NewExporter(st, rs)
	if *exportPath != "" {
		if err := exp.ExportFile(*exportPath, exporter.ExportOptions{IncludeViews: true}); err != nil {
			return err
		}
		fmt.Printf("已导出: %s\n", *exportPath)
	}
	if *dumpPath != "" {
		if err := exp.Dump(*dumpPath); err != nil {
			return err
		}
		fmt.Printf("已导出: %s\n", *dumpPath)
	}

	if rep.Failed() {
		return fmt.Errorf("%d 个批次导入失败", rep.FailedFiles)
	}
	return nil
}
