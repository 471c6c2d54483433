package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/scoutlens/internal/config"
	"github.com/okian/scoutlens/internal/domain/status"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCOUTLENS_ADDR", ":8080")
			_ = os.Setenv("SCOUTLENS_QUEUE_SIZE", "64")
			_ = os.Setenv("SCOUTLENS_WORKER_COUNT", "3")
			_ = os.Setenv("SCOUTLENS_KNOWN_SOURCES", "FotMob, SofaScore,FBref")
			_ = os.Setenv("SCOUTLENS_HEADLINE_METRIC", "Expected Goals")
			_ = os.Setenv("SCOUTLENS_DRIFT_TOLERANCE", "0.05")
			_ = os.Setenv("SCOUTLENS_LOG_JSON", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.KnownSources, convey.ShouldResemble, []string{"FotMob", "SofaScore", "FBref"})
				convey.So(cfg.HeadlineMetric, convey.ShouldEqual, "Expected Goals")
				convey.So(cfg.DriftTolerance, convey.ShouldEqual, 0.05)
				convey.So(cfg.LogJSON, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
snapshot_dir: "./testdata"
known_sources: [FotMob, SofaScore]
status_thresholds:
  - {upper: 5.0, band: good}
  - {upper: 7.0, band: caution}
status_fallback: warning
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUTLENS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.SnapshotDir, convey.ShouldEqual, "./testdata")
				convey.So(cfg.KnownSources, convey.ShouldResemble, []string{"FotMob", "SofaScore"})

				tbl, err := cfg.StatusTable()
				convey.So(err, convey.ShouldBeNil)
				convey.So(tbl.Rows, convey.ShouldResemble, []status.Threshold{
					{Upper: 5.0, Band: status.Good},
					{Upper: 7.0, Band: status.Caution},
				})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
queue_size: 300
worker_count: 24
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUTLENS_CONFIG", tmpFile)
			_ = os.Setenv("SCOUTLENS_ADDR", ":8080")
			_ = os.Setenv("SCOUTLENS_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("SCOUTLENS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SCOUTLENS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SCOUTLENS_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("SCOUTLENS_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with zero workers", func() {
			_ = os.Setenv("SCOUTLENS_WORKER_COUNT", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEnvFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, filepath.Join(dir, ".env"), "SCOUTLENS_HEADLINE_METRIC=Expected Goals\nSCOUTLENS_SUBMIT_RATE=0.5\n")
	writeFile(t, filepath.Join(dir, ".env.local"), "SCOUTLENS_SUBMIT_RATE=4\n")
	t.Setenv("SCOUTLENS_SUBMIT_BURST", "9")
	defer func() {
		_ = os.Unsetenv("SCOUTLENS_HEADLINE_METRIC")
		_ = os.Unsetenv("SCOUTLENS_SUBMIT_RATE")
	}()

	convey.Convey("Given .env files in the working directory", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then their variables are layered under the process env", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.HeadlineMetric, convey.ShouldEqual, "Expected Goals")
			convey.So(cfg.SubmitRate, convey.ShouldEqual, 4)
			convey.So(cfg.SubmitBurst, convey.ShouldEqual, 9)
		})
	})
}

// Helper functions.

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func clearConfigEnvVars() {
	envVars := []string{
		"SCOUTLENS_CONFIG",
		"SCOUTLENS_ADDR",
		"SCOUTLENS_QUEUE_SIZE",
		"SCOUTLENS_WORKER_COUNT",
		"SCOUTLENS_KNOWN_SOURCES",
		"SCOUTLENS_HEADLINE_METRIC",
		"SCOUTLENS_DRIFT_TOLERANCE",
		"SCOUTLENS_LOG_JSON",
		"SCOUTLENS_SUBMIT_RATE",
		"SCOUTLENS_SUBMIT_BURST",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "scoutlens-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
