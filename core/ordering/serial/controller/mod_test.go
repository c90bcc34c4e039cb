package controller

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/execution/native"
	"go.dedis.ch/bazaar/core/ordering"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/ordering/serial"
	"go.dedis.ch/bazaar/core/store/kv"
	"go.dedis.ch/bazaar/core/validation"
	"go.dedis.ch/bazaar/internal/testing/fake"
)

func TestHostController_OnStartLocal(t *testing.T) {
	path := writeConfig(t)

	ctrl := NewController()
	inj := node.NewInjector()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: path}, inj)
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, inj.Resolve(&cfg))
	require.Equal(t, "marketplace", cfg.Database.Bucket)

	var exec *native.Service
	require.NoError(t, inj.Resolve(&exec))

	var srvc ordering.Service
	require.NoError(t, inj.Resolve(&srvc))

	var watcher *events.Watcher
	require.NoError(t, inj.Resolve(&watcher))

	var host api.Host
	require.Error(t, inj.Resolve(&host))

	err = ctrl.OnStop(inj)
	require.NoError(t, err)

	// The database is released by the stop.
	db, err := kv.New(cfg.Database.Path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestHostController_OnStartRemote(t *testing.T) {
	ctrl := NewController()
	inj := node.NewInjector()

	flags := node.FlagSet{
		node.ConfigFlag: writeConfig(t),
		node.RemoteFlag: "http://127.0.0.1:8080",
	}

	err := ctrl.OnStart(flags, inj)
	require.NoError(t, err)

	var host api.Host
	require.NoError(t, inj.Resolve(&host))
	require.IsType(t, api.Client{}, host)

	var srvc ordering.Service
	require.Error(t, inj.Resolve(&srvc))

	require.NoError(t, ctrl.OnStop(inj))
}

func TestHostController_OnStartFailures(t *testing.T) {
	ctrl := NewController()

	err := ctrl.OnStart(node.FlagSet{node.ConfigFlag: "/does/not/exist.yaml"}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config: ")

	dir := t.TempDir()
	path := filepath.Join(dir, "bazaar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: nope\n"), 0600))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: path}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to setup logger: ")

	content := "database:\n  path: " + filepath.Join(dir, "missing", "bazaar.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	err = ctrl.OnStart(node.FlagSet{node.ConfigFlag: path}, node.NewInjector())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to open database: ")
}

func TestHostController_OnStartReleasesDatabase(t *testing.T) {
	newService = func(kv.DB, validation.Service, ...serial.Option) (*serial.Service, error) {
		return nil, fake.GetError()
	}

	defer func() {
		newService = serial.NewService
	}()

	path := writeConfig(t)

	err := NewController().OnStart(node.FlagSet{node.ConfigFlag: path}, node.NewInjector())
	require.EqualError(t, err, fake.Err("failed to create host"))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	db, err := kv.New(cfg.Database.Path, kv.WithOpenTimeout(100*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestConfigShow(t *testing.T) {
	out := new(bytes.Buffer)
	printer = out

	defer func() {
		printer = os.Stdout
	}()

	builder := node.NewBuilderWithCfg("test", make(chan os.Signal, 1), io.Discard, NewController())

	app := builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err := app.Run([]string{"test", "--config", writeConfig(t), "config", "show"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "bucket: marketplace")
}

func TestDBBackup(t *testing.T) {
	out := new(bytes.Buffer)
	cfg := writeConfig(t)
	target := filepath.Join(t.TempDir(), "copy.db")

	builder := node.NewBuilderWithCfg("test", make(chan os.Signal, 1), out, NewController())

	app := builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err := app.Run([]string{"test", "--config", cfg, "db", "backup", "--out", target})
	require.NoError(t, err)
	require.Contains(t, out.String(), "written to "+target)

	db, err := kv.New(target)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = app.Run([]string{"test", "--config", cfg, "db", "backup", "--out", target})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to create backup: ")

	builder = node.NewBuilderWithCfg("test", make(chan os.Signal, 1), out, NewController())

	app = builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err = app.Run([]string{"test", "--config", cfg, "--remote", "http://127.0.0.1:1",
		"db", "backup", "--out", target})
	require.Error(t, err)
	require.Contains(t, err.Error(), "backup needs the local database: ")
}

// -----------------------------------------------------------------------------
// Utility functions

func writeConfig(t *testing.T) string {
	dir := t.TempDir()

	content := "database:\n" +
		"  path: " + filepath.Join(dir, "bazaar.db") + "\n" +
		"  bucket: marketplace\n" +
		"log:\n" +
		"  level: error\n"

	path := filepath.Join(dir, "bazaar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return path
}
