package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/mlte/config"
	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
)

// runner holds the state shared by the commands of one invocation.
type runner struct {
	cfg        *config.Config
	fromFile   bool
	logger     logging.Logger
	logFile    *logging.FileAppender
	debug      bool
	inspector  measurement.Inspector
	format     string
	sampleOpts []measurement.Option
}

func (r *runner) setup(c *cli.Context) error {
	r.logger = logging.NewBlankLogger("mlte")
	r.logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	r.logger.SetLevel(logging.WARN)
	if r.debug = c.Bool(flagDebug); r.debug {
		r.logger.SetLevel(logging.DEBUG)
	}
	if path := c.String(flagLogFile); path != "" {
		r.logFile = logging.NewFileAppender(path)
		r.logger.AddAppender(r.logFile)
	}

	r.cfg = config.Default()
	if path := c.String(flagConfig); path != "" {
		cfg, err := config.Read(path, r.logger)
		if err != nil {
			return errors.Wrapf(err, "reading config %s", path)
		}
		r.cfg = cfg
		r.fromFile = true
		if !r.debug {
			r.logger.SetLevel(cfg.LogLevel)
		}
	}
	if c.IsSet(flagInspector) {
		r.cfg.Inspector = c.String(flagInspector)
	}
	if c.IsSet(flagInterval) {
		r.cfg.PollInterval = c.Duration(flagInterval)
	}
	if err := r.cfg.Validate(flagConfig); err != nil {
		return err
	}

	switch r.format = c.String(flagFormat); r.format {
	case formatText, formatTable, formatJSON:
	default:
		return errors.Errorf("unknown output format %q", r.format)
	}

	r.sampleOpts = append(r.cfg.SamplingOptions(), measurement.WithLogger(r.logger))
	r.logger.Debugw("configured", "inspector", r.cfg.Inspector, "interval", r.cfg.PollInterval)
	return nil
}

func (r *runner) teardown(c *cli.Context) error {
	if r.logger == nil {
		return nil
	}
	goutils.UncheckedError(r.logger.Sync())
	if r.logFile != nil {
		goutils.UncheckedError(r.logFile.Close())
	}
	return nil
}

// context returns the context measurements run under. With --debug it carries debug mode, so
// per-poll traces are logged even by loggers handed a higher level.
func (r *runner) context(c *cli.Context) context.Context {
	if r.debug {
		return logging.EnableDebugMode(c.Context, "")
	}
	return c.Context
}

// processInspector constructs the configured inspector on first use.
func (r *runner) processInspector() (measurement.Inspector, error) {
	if r.inspector != nil {
		return r.inspector, nil
	}
	inspector, err := measurement.NewInspector(r.cfg.Inspector, r.logger)
	if err != nil {
		return nil, err
	}
	r.inspector = inspector
	return inspector, nil
}
