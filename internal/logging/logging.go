// Package logging builds the zap logger and turns game events into log lines.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"imitgame/internal/game"
)

// New returns a json logger for format "json" and a colored console logger
// otherwise. Unknown levels fall back to info.
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Subscriber logs game events. Diagnostics are informational, never errors.
func Subscriber(logger *zap.Logger) func(game.Event) {
	return func(e game.Event) {
		base := []zap.Field{zap.String("game_id", e.GameID), zap.Int("seq", e.Seq)}
		switch e.Kind {
		case game.EventDiagnostic:
			logger.Info(e.Notice, append(base, zap.String("reason", string(e.Reason)))...)
		case game.EventMessage:
			if e.Message == nil {
				return
			}
			logger.Debug("message", append(base,
				zap.String("speaker", e.Message.Speaker()),
				zap.Int("chars", len(e.Message.Content)),
			)...)
		case game.EventVote:
			if e.Vote == nil {
				return
			}
			logger.Debug("vote", append(base,
				zap.String("voter", e.Vote.Voter),
				zap.String("voted_for", e.Vote.VotedFor),
				zap.String("strategy", string(e.Vote.Strategy)),
			)...)
		case game.EventOutcome:
			if e.Outcome == nil {
				return
			}
			logger.Info("game finished", append(base,
				zap.String("mode", string(e.Outcome.Mode)),
				zap.String("most_voted", e.Outcome.MostVoted),
				zap.String("human", e.Outcome.HumanLabel),
				zap.Bool("human_caught", e.Outcome.HumanCaught),
			)...)
		}
	}
}
