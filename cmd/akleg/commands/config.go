package commands

import (
	"akleg-data/internal/basis"
	"akleg-data/internal/export"
	"akleg-data/internal/metrics"
	"akleg-data/internal/notify"
	"akleg-data/internal/publish"
	"akleg-data/internal/store"
	"akleg-data/lib/configutil"
)

type CuratedConfig struct {
	BaseUrl string `json:"base_url"`
	// reads a snapshot written by `akleg curated snapshot` instead of downloading the sheets
	SnapshotDir string `json:"snapshot_dir"`
	// where `akleg curated snapshot` writes
	SaveDir string `json:"save_dir"`
}

type VersionsConfig struct {
	ChunkSize   int `json:"chunk_size"`
	Concurrency int `json:"concurrency"`
}

// Config is the contents of akleg.json5.
type Config struct {
	Store    store.Config      `json:"store"`
	Basis    basis.Config      `json:"basis"`
	Curated  CuratedConfig     `json:"curated"`
	Versions VersionsConfig    `json:"versions"`
	Export   export.Config     `json:"export"`
	Publish  publish.Config    `json:"publish"`
	Metrics  metrics.Config    `json:"metrics"`
	Notify   notify.SmtpConfig `json:"notify"`
	// every http exchange is written to this directory when set
	HttpDumpDir string `json:"http_dump_dir"`
}

var defaults = Config{
	Store: store.Config{
		Driver: store.DialectSqlite,
		File:   "akleg.db",
	},
	Basis: basis.Config{
		CacheDir:    ".cache/basis",
		CachePolicy: basis.CachePreviousSessions,
	},
	Curated: CuratedConfig{
		SaveDir: "curated",
	},
	Export: export.Config{
		Dir: "data",
	},
	Metrics: metrics.Config{
		Job: "akleg",
	},
}

func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfigWithDefaults(configPath, defaults)
	if err != nil {
		return Config{}, err
	}
	if cfg.Basis.CachePolicy != "" {
		_, err = basis.ParseCachePolicy(string(cfg.Basis.CachePolicy))
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
