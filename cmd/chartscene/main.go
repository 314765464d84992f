// Package main runs a chart scene headless: it loads options and data, animates for a while and
// can save the last frame as an image.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/chartscene/chart"
	"go.viam.com/chartscene/config"
	"go.viam.com/chartscene/logging"
	"go.viam.com/chartscene/render"
)

const (
	flagConfig   = "config"
	flagData     = "data"
	flagDuration = "duration"
	flagOut      = "out"
	flagWatch    = "watch"
	flagDebug    = "debug"
	flagLogFile  = "log-file"
	flagSummary  = "summary"

	// log file rotation, sizes in megabytes.
	logFileMaxSize    = 10
	logFileMaxBackups = 3

	// watchDebounce collapses the burst of events editors produce on save.
	watchDebounce = 200 * time.Millisecond
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		logger  logging.Logger
		logFile *lumberjack.Logger
	)
	return &cli.App{
		Name:  "chartscene",
		Usage: "render a 3D globe chart headless",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load chart options from `FILE`",
			},
			&cli.StringFlag{
				Name:    flagData,
				Aliases: []string{"d"},
				Usage:   "load a JSON object of {type: data} from `FILE`",
			},
			&cli.DurationFlag{
				Name:  flagDuration,
				Usage: "how long to animate before exiting, 0 runs until interrupted",
				Value: 0,
			},
			&cli.StringFlag{
				Name:    flagOut,
				Aliases: []string{"o"},
				Usage:   "write the last frame to `FILE`, .png or .ppm",
			},
			&cli.BoolFlag{
				Name:  flagWatch,
				Usage: "re-apply the data file whenever it changes",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.BoolFlag{
				Name:  flagSummary,
				Usage: "print the data groups of every type before exiting",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated as it grows",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the chart options file",
				Action: printSchema,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("chartscene")
			} else {
				logger = logging.NewLogger("chartscene")
			}
			if path := c.String(flagLogFile); path != "" {
				logFile = &lumberjack.Logger{
					Filename:   path,
					MaxSize:    logFileMaxSize,
					MaxBackups: logFileMaxBackups,
					Compress:   true,
				}
				logger.AddAppender(logging.NewWriterAppender(logFile))
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
		Action: func(c *cli.Context) error {
			return run(c, logger)
		},
	}
}

func printSchema(c *cli.Context) error {
	schema := jsonschema.Reflect(&config.Options{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

func loadOptions(path string) (*config.Options, error) {
	if path == "" {
		return &config.Options{Surface: config.Surface{Width: 800, Height: 600}}, nil
	}
	return config.Read(path)
}

func run(c *cli.Context, logger logging.Logger) (err error) {
	if c.Bool(flagWatch) && c.String(flagData) == "" {
		return errors.New("--watch needs --data")
	}
	opts, err := loadOptions(c.String(flagConfig))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d := c.Duration(flagDuration); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	renderer := render.NewImageRenderer(true)
	scene, err := chart.New(ctx, *opts, logger.Sublogger("chart"), chart.WithRenderer(renderer))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, scene.Close())
	}()

	if path := c.String(flagData); path != "" {
		if err := applyData(ctx, scene, path, logger); err != nil {
			return err
		}
		if c.Bool(flagWatch) {
			if err := watch(ctx, scene, path, logger); err != nil {
				return err
			}
		}
	}

	if c.Duration(flagDuration) > 0 || c.Bool(flagWatch) {
		<-ctx.Done()
	}

	if out := c.String(flagOut); out != "" {
		if renderer.Frames() == 0 {
			if err := renderer.Render(scene.Scene(), scene.Camera()); err != nil {
				return err
			}
		}
		if err := renderer.WriteImage(out); err != nil {
			return err
		}
		logger.Infow("wrote frame", "path", out, "frames", renderer.Frames())
	}
	if c.Bool(flagSummary) {
		if _, err := fmt.Fprintln(c.App.Writer, summary(scene)); err != nil {
			return err
		}
	}
	return nil
}

// applyData replaces the content of every type listed in the data file, in key order.
func applyData(ctx context.Context, scene *chart.Chart, path string, logger logging.Logger) error {
	data, err := config.ReadData(path)
	if err != nil {
		return err
	}
	types := make([]string, 0, len(data))
	for dataType := range data {
		types = append(types, dataType)
	}
	sort.Strings(types)
	var errs error
	for _, dataType := range types {
		errs = multierr.Append(errs, scene.SetData(ctx, dataType, data[dataType]))
	}
	logger.Debugw("applied data", "path", path, "types", types)
	return errs
}

// watch re-applies the data file on writes until ctx is done. Editors that replace the file are
// handled by watching its directory.
func watch(ctx context.Context, scene *chart.Chart, path string, logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return multierr.Combine(err, watcher.Close())
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return multierr.Combine(err, watcher.Close())
	}

	debounced := debounce.New(watchDebounce)
	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnw("closing watcher", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				debounced(func() {
					if err := applyData(ctx, scene, path, logger); err != nil {
						logger.Warnw("reloading data failed", "path", path, "error", err)
						return
					}
					logger.Infow("reloaded data", "path", path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("watching data", "error", err)
			}
		}
	}()
	return nil
}
