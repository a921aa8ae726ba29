package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imitgame/internal/message"
	"imitgame/internal/responder"
	"imitgame/internal/vote"
)

func newProbeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "test <spec>",
		Short: "Send a short probe conversation to one provider and print its reply",
		Example: `  imitgame test anthropic/claude-haiku-4.5
  imitgame test gemini-prefill`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.factory("").FromSpec(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), c.cfg.RequestTimeout)
			defer cancel()
			return probe(ctx, c.out, r, c.cfg.LabelPrefix, c.logger)
		},
	}
}

func probeTranscript(p *vote.Parser) []message.Message {
	return []message.Message{
		message.System("You are in a group chat game."),
		{Role: message.RoleUser, SpeakerID: p.Label(1), Content: "Hi everyone! What do you think about AI?"},
	}
}

func probe(ctx context.Context, out io.Writer, r responder.Responder, prefix string, logger *zap.Logger) error {
	p := vote.NewParser(prefix)
	label := p.Label(2)
	started := time.Now()
	reply, err := r.Respond(ctx, probeTranscript(p), label)
	if err != nil {
		return fmt.Errorf("%s: %w", r.Name(), err)
	}
	logger.Debug("probe answered", zap.String("responder", r.Name()), zap.Duration("took", time.Since(started)))
	if strings.TrimSpace(reply) == "" {
		reply = "(empty reply)"
	}
	_, err = fmt.Fprintf(out, "%s as %s: %s\n", r.Name(), label, reply)
	return err
}
