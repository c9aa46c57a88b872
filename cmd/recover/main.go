package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/zhukovaskychina/xmysql-server/internal/blockdev"
	"github.com/zhukovaskychina/xmysql-server/internal/recovery"
	"github.com/zhukovaskychina/xmysql-server/logger"
	"github.com/zhukovaskychina/xmysql-server/server/conf"
)

const help = `
******************************************************************************************

 ________ _______  ________  _______  ________  ___      ___ _______  ________     ___    ___
|\   __  \\  ___ \|\   ____\|\  ___ \|\   __  \|\  \    /  /|\  ___ \|\   __  \   |\  \  /  /|
\ \  \|\  \ \   __/\ \  \___|\ \   __/\ \  \|\  \ \  \  /  / | \   __/\ \  \|\  \  \ \  \/  / /
 \ \   _  _\ \  \_|/_\ \  \    \ \  \_|/_\ \  \\\  \ \  \/  / / \ \  \_|/_\ \   _  _\ \    / /
  \ \  \\  \\ \  \_|\ \ \  \____\ \  \_|\ \ \  \\\  \ \    / /   \ \  \_|\ \ \  \\  \\/  /  /
   \ \__\\ _\\ \_______\ \_______\ \_______\ \_______\ \__/ /     \ \_______\ \__\\ _\__/  /
    \|__|\|__|\|_______|\|_______|\|_______|\|_______|\|__|/       \|_______|\|__|\|__|\___/

******************************************************************************************
帮助:
1. -- help
2. -- configPath   指定 recovery.ini 配置文件
******************************************************************************************
`

// run drives one end-to-end crash-recovery pass, per spec.md §6's
// single-procedure external interface: open the combined device, run
// the recovery driver, and report its summary.
func run(cfg *conf.Cfg) error {
	dev, err := blockdev.Open(cfg.DevicePath)
	if err != nil {
		return err
	}
	defer dev.Close()

	driver := recovery.New(dev, cfg.BufferPoolPages, cfg.ChecksumAlgorithm == "xxhash")
	sum, err := driver.Run(context.Background())
	if err != nil {
		return err
	}

	logger.Infof("recovery complete: checkpoint=#%d@%d read=%d applied=%d skipped_lsn=%d skipped_ckpt=%d noop=%d unknown=%d pages=%d",
		sum.CheckpointNumber, sum.CheckpointLSN, sum.RecordsRead, sum.RecordsApplied,
		sum.RecordsSkippedByLSN, sum.RecordsSkippedByCkpt, sum.RecordsNoOp, sum.RecordsSkippedUnknown, sum.PagesTouched)
	return nil
}

func main() {
	fmt.Println(help)
	fmt.Println("Starting xmysql crash recovery...")

	var configPath string
	flag.StringVar(&configPath, "configPath", "", "recovery.ini 配置文件路径")
	flag.Parse()

	args := &conf.CommandLineArgs{ConfigPath: configPath}
	config := conf.NewCfg().Load(args)

	if err := logger.InitLogger(logger.LogConfig{LogLevel: config.LogLevel}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	logger.Infof("recovery config loaded: device=%s log_partition=%s buffer_pool_pages=%d checksum_algorithm=%s",
		config.DevicePath, config.LogPartitionPath, config.BufferPoolPages, config.ChecksumAlgorithm)

	if err := run(config); err != nil {
		logger.Errorf("recovery failed: %v", err)
		panic(err)
	}
	logger.Info("recovery finished successfully")
}
