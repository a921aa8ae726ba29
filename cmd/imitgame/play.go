package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imitgame/internal/console"
	"imitgame/internal/events"
	"imitgame/internal/game"
	"imitgame/internal/logging"
	"imitgame/internal/metrics"
	"imitgame/internal/preset"
	"imitgame/internal/responder"
)

const (
	defaultPlayTopic = "What makes someone seem human in a text conversation?"
	defaultDemoTopic = "Is this performance art?"
	demoTurns        = 2
)

type playOptions struct {
	topic       string
	name        string
	turns       int
	preset      string
	models      string
	withPrefill bool
	voteMode    string
	judge       string
	shuffle     bool
}

func (o *playOptions) bind(cmd *cobra.Command, defaultTopic string, defaultTurns int) {
	f := cmd.Flags()
	f.StringVarP(&o.topic, "topic", "t", defaultTopic, "conversation topic")
	f.StringVarP(&o.name, "name", "n", "", "display name of the human")
	f.IntVar(&o.turns, "turns", defaultTurns, "rounds of conversation (0 uses the config value)")
	f.StringVar(&o.preset, "preset", "", "model preset (cheap|smart|<configured>)")
	f.StringVar(&o.models, "models", "", "comma-separated provider specs, overrides --preset")
	f.BoolVar(&o.withPrefill, "with-prefill", false, "add a gemini-prefill participant")
	f.StringVar(&o.voteMode, "vote-mode", "", "peer or judge (default from config)")
	f.StringVar(&o.judge, "judge", "", "judge provider spec for judge mode")
	f.BoolVar(&o.shuffle, "shuffle", false, "shuffle seating before labels are assigned")
}

func newPlayCmd(c *cli) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game as the human",
		Long: `Play a game as the human. Exits 0 when the human escapes detection and
1 when the human is caught.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.runGame(cmd, opts, false)
			if err != nil {
				return err
			}
			if out.HumanCaught {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	opts.bind(cmd, defaultPlayTopic, 0)
	return cmd
}

func newDemoCmd(c *cli) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a short game; an AI stands in for the human unless the preset seats one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.runGame(cmd, opts, true)
			return err
		},
	}
	opts.bind(cmd, defaultDemoTopic, demoTurns)
	return cmd
}

// lineup resolves the participant specs for a game. The returned definition may
// contain "human".
func lineup(presets *preset.Manager, opts *playOptions) (preset.Definition, error) {
	var def preset.Definition
	if models := strings.TrimSpace(opts.models); models != "" {
		def.Name = "custom"
		for _, s := range strings.Split(models, ",") {
			if s = strings.TrimSpace(s); s != "" {
				def.Specs = append(def.Specs, s)
			}
		}
		if len(def.Specs) == 0 {
			return preset.Definition{}, fmt.Errorf("--models: no provider specs")
		}
	} else {
		p, err := presets.Resolve(opts.preset)
		if err != nil {
			return preset.Definition{}, err
		}
		def = p
	}
	if opts.withPrefill && !slices.Contains(def.Specs, responder.SpecGeminiPrefill) {
		def.Specs = append(slices.Clone(def.Specs), responder.SpecGeminiPrefill)
	}
	if len(def.AI()) == 0 {
		return preset.Definition{}, fmt.Errorf("preset %q has no AI participants", def.Name)
	}
	return def, nil
}

func (c *cli) votingRules(mode game.Mode) game.VotingRules {
	return game.VotingRules{
		Mode:               mode,
		HumanVotes:         c.cfg.HumanVotes,
		ExcludeHumanVote:   c.cfg.ExcludeHumanVote,
		ExcludeSentinels:   c.cfg.ExcludeSentinels,
		ExcludeSelfVotes:   c.cfg.ExcludeSelfVotes,
		ExcludeHumanTarget: c.cfg.ExcludeHumanTarget,
	}
}

func (c *cli) runGame(cmd *cobra.Command, opts *playOptions, demo bool) (game.Outcome, error) {
	presets, err := preset.NewManager(c.cfg)
	if err != nil {
		return game.Outcome{}, err
	}
	def, err := lineup(presets, opts)
	if err != nil {
		return game.Outcome{}, err
	}

	modeFlag := c.cfg.VoteMode
	if strings.TrimSpace(opts.voteMode) != "" {
		modeFlag = opts.voteMode
	}
	mode, err := game.ParseMode(modeFlag)
	if err != nil {
		return game.Outcome{}, err
	}

	factory := c.factory(opts.name)
	ais, err := factory.FromSpecs(def.Specs)
	if err != nil {
		return game.Outcome{}, err
	}
	var human responder.Responder = factory.Human()
	if demo && !def.HasHuman() {
		inner, err := factory.FromSpec("openrouter:" + preset.FakeHumanModel)
		if err != nil {
			return game.Outcome{}, err
		}
		human = responder.Masked{DisplayName: "fake-human", Inner: inner}
	}

	var judge responder.Responder
	if mode == game.ModeJudge {
		spec := c.cfg.Judge
		if strings.TrimSpace(opts.judge) != "" {
			spec = opts.judge
		}
		if judge, err = factory.FromSpec(spec); err != nil {
			return game.Outcome{}, fmt.Errorf("judge: %w", err)
		}
	}

	turns := c.cfg.NumTurns
	if opts.turns > 0 {
		turns = opts.turns
	}
	topic := strings.TrimSpace(opts.topic)
	if !cmd.Flags().Changed("topic") && strings.TrimSpace(c.cfg.Topic) != "" {
		topic = strings.TrimSpace(c.cfg.Topic)
	}

	renderer := console.New(c.out)
	collector := metrics.NewCollector("imitgame", prometheus.NewRegistry())
	bus := events.NewBus()
	bus.Subscribe(renderer.Handle)
	bus.Subscribe(logging.Subscriber(c.logger))
	bus.Subscribe(collector.Observe)

	g, err := game.New(ais, human, game.Config{
		NumTurns:    turns,
		LabelPrefix: c.cfg.LabelPrefix,
		Shuffle:     opts.shuffle || c.cfg.ShuffleOrder,
		Voting:      c.votingRules(mode),
		Judge:       judge,
		Prompts:     c.prompts,
		Sink:        bus,
	})
	if err != nil {
		return game.Outcome{}, err
	}
	c.logger.Info("game starting",
		zap.String("game_id", g.ID()),
		zap.String("preset", def.Name),
		zap.String("mode", string(mode)),
		zap.Int("turns", turns),
		zap.Strings("participants", g.Labels()),
	)
	if !demo || def.HasHuman() {
		fmt.Fprintf(c.out, "You are %s. Try to blend in.\n", g.HumanLabel())
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	started := time.Now()
	out, err := g.Play(ctx, topic)
	if err != nil {
		return game.Outcome{}, err
	}
	c.logger.Debug(collector.Snapshot().String(), zap.String("game_id", out.GameID))
	c.saveOutcome(ctx, out, started)
	return out, nil
}

// saveOutcome records a finished game. A storage failure never changes the result.
func (c *cli) saveOutcome(ctx context.Context, out game.Outcome, started time.Time) {
	hist, store, err := c.openHistory()
	if err != nil {
		c.logger.Warn("game not saved", zap.String("game_id", out.GameID), zap.Error(err))
		return
	}
	defer store.Close()
	if _, err := hist.Save(context.WithoutCancel(ctx), out, started); err != nil {
		c.logger.Warn("game not saved", zap.String("game_id", out.GameID), zap.Error(err))
		return
	}
	c.logger.Info("game saved", zap.String("game_id", out.GameID), zap.String("path", c.cfg.StoragePath))
}
