// Package controller implements the initializer that opens the local host of a
// node, or connects to a remote one.
package controller

import (
	"github.com/opentracing/opentracing-go"
	"go.dedis.ch/bazaar"
	"go.dedis.ch/bazaar/cli"
	"go.dedis.ch/bazaar/cli/node"
	"go.dedis.ch/bazaar/config"
	"go.dedis.ch/bazaar/core/events"
	"go.dedis.ch/bazaar/core/events/kafka"
	"go.dedis.ch/bazaar/core/execution/native"
	"go.dedis.ch/bazaar/core/ordering/api"
	"go.dedis.ch/bazaar/core/ordering/serial"
	"go.dedis.ch/bazaar/core/store/kv"
	"go.dedis.ch/bazaar/core/validation/simple"
	"go.dedis.ch/bazaar/internal/tracing"
	"golang.org/x/xerrors"
)

// keyAttr is the event attribute used as the key of the kafka messages.
const keyAttr = "id"

const outFlag = "out"

var newService = serial.NewService

// hostController is the initializer of the host. In local mode, it opens the
// database and injects the native execution service and the ordering service.
// In remote mode, it injects a client of the node instead.
//
// - implements node.Initializer
type hostController struct{}

// NewController returns a new initializer of the host.
func NewController() node.Initializer {
	return hostController{}
}

// SetCommands implements node.Initializer.
func (hostController) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("config")
	cmd.SetDescription("inspect the configuration")

	sub := cmd.SetSubCommand("show")
	sub.SetDescription("print the configuration once the file and the " +
		"environment are merged")
	sub.SetAction(func(flags cli.Flags) error {
		return showConfig(flags)
	})

	cmd = builder.SetCommand("db")
	cmd.SetDescription("maintain the local database")

	sub = cmd.SetSubCommand("backup")
	sub.SetDescription("write a consistent copy of the database")
	sub.SetFlags(cli.StringFlag{
		Name:     outFlag,
		Usage:    "path of the copy, which must not exist",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(backupAction{}))
}

// OnStart implements node.Initializer. It loads the configuration and starts
// the host.
func (hostController) OnStart(flags cli.Flags, inj node.Injector) error {
	cfg, err := config.Load(flags.Path(node.ConfigFlag))
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	err = bazaar.SetupLogger(cfg.Log.Level, bazaar.LogFile{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return xerrors.Errorf("failed to setup logger: %v", err)
	}

	inj.Inject(cfg)

	remote := flags.String(node.RemoteFlag)
	if remote != "" {
		inj.Inject(api.NewClient(remote+api.DefaultPath, cfg.Server.Timeout))
		return nil
	}

	opts := []serial.Option{
		serial.WithBucket([]byte(cfg.Database.Bucket)),
	}

	watcher := events.NewWatcher()
	inj.Inject(watcher)

	emitters := events.MultiEmitter{events.LogEmitter{}, watcher}

	if len(cfg.Kafka.Brokers) > 0 {
		emitter := kafka.NewEmitter(cfg.Kafka.Brokers, cfg.Kafka.Topic,
			cfg.Kafka.Producer, keyAttr)

		emitters = append(emitters, emitter)
		inj.Inject(emitter)
	}

	opts = append(opts, serial.WithEmitter(emitters))

	if cfg.Tracing.Enabled {
		tracer, err := tracing.GetTracer(cfg.Tracing.Service)
		if err != nil {
			return xerrors.Errorf("failed to get tracer: %v", err)
		}

		opentracing.SetGlobalTracer(tracer)
		opts = append(opts, serial.WithTracer(tracer))
	}

	db, err := kv.New(cfg.Database.Path)
	if err != nil {
		return xerrors.Errorf("failed to open database: %v", err)
	}

	exec := native.NewExecution()

	srvc, err := newService(db, simple.NewService(exec), opts...)
	if err != nil {
		db.Close()
		return xerrors.Errorf("failed to create host: %v", err)
	}

	inj.Inject(db)

	inj.Inject(exec)
	inj.Inject(srvc)

	return nil
}

// OnStop implements node.Initializer. It closes the components that were
// started.
func (hostController) OnStop(inj node.Injector) error {
	var emitter *kafka.Emitter

	err := inj.Resolve(&emitter)
	if err == nil {
		err = emitter.Close()
		if err != nil {
			return xerrors.Errorf("failed to close emitter: %v", err)
		}
	}

	var db kv.DB

	err = inj.Resolve(&db)
	if err == nil {
		err = db.Close()
		if err != nil {
			return xerrors.Errorf("failed to close database: %v", err)
		}
	}

	err = tracing.CloseAll()
	if err != nil {
		return xerrors.Errorf("failed to close tracers: %v", err)
	}

	return nil
}
