package conf

import (
	"fmt"
	"gopkg.in/ini.v1"
	"os"
	"path"
	"path/filepath"
)

var ConfigPath string

type CommandLineArgs struct {
	ConfigPath string
}

/**
[recovery]
device_path        = /var/lib/xmysql/data.bin
log_partition_path = /var/lib/xmysql/redo.log
buffer_pool_pages   = 256
checksum_algorithm = xxhash
log_level          = info
*/
type Cfg struct {
	Raw *ini.File

	AppName string

	// DevicePath names the single device file that holds both the log
	// partition and the data partitions; only it is opened, through
	// internal/blockdev.Device. LogPartitionPath is read and logged but
	// not opened.
	DevicePath      string
	LogPartitionPath string

	// BufferPoolPages feeds internal/bufferpool.New's frame count.
	BufferPoolPages int

	// ChecksumAlgorithm selects the post-apply verification pass in
	// internal/recovery; "xxhash" enables it, anything else (including
	// empty) leaves it off.
	ChecksumAlgorithm string

	LogLevel string
}

func NewCfg() *Cfg {
	return &Cfg{
		Raw:             ini.Empty(),
		BufferPoolPages: 128,
		LogLevel:        "info",
	}
}

func (cfg *Cfg) Load(args *CommandLineArgs) *Cfg {
	setHomePath(args)
	iniFile, err := cfg.loadConfiguration(args)
	if err != nil {
		fmt.Println("加载配置文件时有异常", err)
		os.Exit(1)
	}
	cfg.Raw = iniFile

	cfg.parseRecoveryCfg(cfg.Raw.Section("recovery"))
	return cfg
}

func setHomePath(args *CommandLineArgs) {
	if args.ConfigPath != "" {
		ConfigPath = args.ConfigPath
		return
	}

	ConfigPath, _ = filepath.Abs(".")
}

// parseRecoveryCfg populates the fields internal/recovery's driver
// needs to open its block device and size its buffer pool. Every key is
// required: a misconfigured recovery run must not silently proceed with
// defaults for paths it cannot verify (spec.md §7's "no partial
// recovery" posture extended to the config layer).
func (cfg *Cfg) parseRecoveryCfg(section *ini.Section) *Cfg {
	devicePath, err := section.GetKey("device_path")
	if err != nil {
		fmt.Println("device_path配置异常", err)
		os.Exit(1)
	}
	logPartitionPath, err := section.GetKey("log_partition_path")
	if err != nil {
		fmt.Println("log_partition_path配置异常", err)
		os.Exit(1)
	}
	bufferPoolPages, err := section.GetKey("buffer_pool_pages")
	if err != nil {
		fmt.Println("buffer_pool_pages配置异常", err)
		os.Exit(1)
	}
	checksumAlgorithm, err := section.GetKey("checksum_algorithm")
	if err != nil {
		fmt.Println("checksum_algorithm配置异常", err)
		os.Exit(1)
	}
	logLevel, err := section.GetKey("log_level")
	if err != nil {
		fmt.Println("log_level配置异常", err)
		os.Exit(1)
	}

	cfg.DevicePath = devicePath.Value()
	cfg.LogPartitionPath = logPartitionPath.Value()

	cfg.BufferPoolPages, err = bufferPoolPages.Int()
	if err != nil {
		fmt.Println(fmt.Sprintf("(BufferPoolPages{%#v}) = error{%v}", cfg.BufferPoolPages, err))
		os.Exit(1)
	}

	cfg.ChecksumAlgorithm = checksumAlgorithm.Value()
	cfg.LogLevel = logLevel.Value()
	return cfg
}

func (cfg *Cfg) loadConfiguration(args *CommandLineArgs) (*ini.File, error) {
	var err error

	defaultConfigFile := path.Join(args.ConfigPath, "")

	// check if config file exists
	if _, err := os.Stat(defaultConfigFile); os.IsNotExist(err) {
		fmt.Println("xmysql-server加载配置文件失败，请确保文件路径存在")
		os.Exit(1)
	}

	// load defaults
	parsedFile, err := ini.Load(defaultConfigFile)
	if err != nil {
		fmt.Println(fmt.Sprintf("Failed to parse defaults.ini, %v", err))
		os.Exit(1)
		return nil, err
	}
	return parsedFile, err
}

