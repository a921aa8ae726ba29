package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imitgame/internal/config"
	"imitgame/internal/history"
	"imitgame/internal/logging"
	"imitgame/internal/prompt"
	"imitgame/internal/responder"
	"imitgame/internal/storage"
)

// cli holds what every subcommand needs once flags are parsed.
type cli struct {
	in  io.Reader
	out io.Writer

	configPath string
	logLevel   string

	cfg     config.Config
	logger  *zap.Logger
	prompts *prompt.Set
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}
	root := &cobra.Command{
		Use:   "imitgame",
		Short: "Reverse Turing test: blend in with AI participants in a group chat",
		Long: `imitgame seats several AI participants and one human in a fixed-order
group chat on a topic. Afterwards the AIs (or an external judge) vote on
which participant is the human.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.setup() },
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "imitgame.yaml", "yaml config path")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.AddCommand(
		newPlayCmd(c),
		newDemoCmd(c),
		newProbeCmd(c),
		newHistoryCmd(c),
		newServeCmd(c),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if lvl := strings.TrimSpace(c.logLevel); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	prompts, err := prompt.Load(cfg.PromptsDir)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	c.prompts = prompts
	return nil
}

func (c *cli) factory(humanName string) *responder.Factory {
	return responder.NewFactory(responder.FactoryOptions{
		OpenRouterKey:      c.cfg.OpenRouterAPIKey,
		OpenRouterBaseURL:  c.cfg.OpenRouterBaseURL,
		GeminiKey:          c.cfg.GeminiAPIKey,
		GeminiBaseURL:      c.cfg.GeminiBaseURL,
		GeminiModel:        c.cfg.GeminiModel,
		GeminiPrefillModel: c.cfg.GeminiPrefillModel,
		Timeout:            c.cfg.RequestTimeout,
		MaxRetries:         c.cfg.LLMMaxRetries,
		MaxTokens:          c.cfg.MaxTokens,
		LabelPrefix:        c.cfg.LabelPrefix,
		Prompts:            c.prompts,
		HumanName:          humanName,
		In:                 c.in,
		Out:                c.out,
		Logger:             c.logger,
	})
}

// openHistory opens the game store. The caller closes the returned store.
func (c *cli) openHistory() (*history.Manager, *storage.BoltStore, error) {
	if err := c.cfg.EnsureStorageDir(); err != nil {
		return nil, nil, err
	}
	store, err := storage.NewBoltStore(c.cfg.StoragePath)
	if err != nil {
		return nil, nil, err
	}
	return history.NewManager(store), store, nil
}
