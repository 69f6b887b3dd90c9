package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tvansteenburgh/charm-tools/pkg/config"
	"github.com/tvansteenburgh/charm-tools/pkg/fetch"
	"github.com/tvansteenburgh/charm-tools/pkg/layerindex"
	"github.com/tvansteenburgh/charm-tools/pkg/pullsource"
	"github.com/tvansteenburgh/charm-tools/pkg/storeapi"
)

const longHelp = `Downloads the source code for a charm, layer, or interface.

The item to download can be specified using any of the following forms:

 - [cs:]charm
 - [cs:]series/charm
 - [cs:]~user/charm
 - [cs:]~user/series/charm
 - layer:layer-name
 - interface:interface-name

If a download directory is not specified, the following environment vars
will be used to determine the download location:

 - For charms, $JUJU_REPOSITORY
 - For layers, $LAYER_PATH
 - For interfaces, $INTERFACE_PATH

If a download location can not be determined from environment variables,
the current working directory will be used.

The download is aborted if the destination directory already exists.`

func NewRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:   "charm-pull-source <item> [dir]",
		Short: "Download the source for a charm, layer, or interface",
		Long:  longHelp,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}

			log := newLogger(verbose, cmd.ErrOrStderr())
			defer log.Sync()

			var dir string
			if len(args) > 1 {
				dir = args[1]
			}

			p := &pullsource.Puller{
				Registry: newRegistry(settings, log),
				Env:      settings,
				Log:      log,
			}
			res, err := p.Pull(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "show verbose output")
	root.Flags().StringVar(&configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/charm-tools/"+config.ConfigFileName+")")
	root.Flags().String("store-url", "", "charm store API root (default "+config.DefaultStoreURL+")")
	root.Flags().String("index-url", "", "layer index root (default "+config.DefaultIndexURL+")")

	return root
}

// newRegistry builds the default fetcher registry with the store fallback
// fetcher ahead of the plain charm store download.
func newRegistry(settings *config.Settings, log *zap.Logger) *fetch.Registry {
	store := storeapi.New(settings.StoreURL, nil)
	r := fetch.NewDefaultRegistry(fetch.Options{
		Store: store,
		Index: layerindex.New(settings.IndexURL, nil),
		Log:   log,
	})
	r.Prepend(fetch.FallbackMatcher(store, log.Named("fetch")))
	return r
}

// newLogger writes warnings and errors as "LEVEL message". Verbose mode
// lowers the level to debug and adds the name of the logging component.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		LevelKey:         "level",
		MessageKey:       "msg",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	level := zapcore.WarnLevel
	if verbose {
		encCfg.NameKey = "logger"
		encCfg.EncodeName = zapcore.FullNameEncoder
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Named("pullsource")
}

// run executes the command and maps its outcome to an exit status. Handled
// download failures are printed as a single line; anything else gets an
// "Error:" prefix.
func run(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return 0
	}

	var perr *pullsource.Error
	if errors.As(err, &perr) {
		fmt.Fprintln(stderr, perr)
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func Execute() {
	os.Exit(run(NewRootCmd(), os.Stderr))
}
