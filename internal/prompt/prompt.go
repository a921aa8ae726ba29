// Package prompt holds the texts sent to participants and the judge. Defaults are
// embedded; a directory of <name>.txt files can override any of them.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed defaults/*.txt
var defaultFiles embed.FS

const (
	NameSystem          = "system"
	NameTopic           = "topic"
	NameVote            = "vote"
	NameJudge           = "judge"
	NameJudgeRequest    = "judge_request"
	NameJudgeCorrection = "judge_correction"
	NameJudgeStrict     = "judge_strict"
	NamePersona         = "persona"
	NameTranscriptSim   = "transcript_sim"
)

var names = []string{
	NameSystem,
	NameTopic,
	NameVote,
	NameJudge,
	NameJudgeRequest,
	NameJudgeCorrection,
	NameJudgeStrict,
	NamePersona,
	NameTranscriptSim,
}

// data is the single value every template is rendered with.
type data struct {
	Topic    string
	Label    string
	Prefix   string
	Previous string
	Labels   []string
}

type Set struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{"join": strings.Join}

// Default returns the embedded prompt set.
func Default() *Set {
	s, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("prompt: embedded defaults are invalid: %v", err))
	}
	return s
}

// Load reads the embedded defaults and then any <name>.txt in dir. A missing dir
// or file keeps the default.
func Load(dir string) (*Set, error) {
	s := &Set{templates: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		raw, err := defaultFiles.ReadFile("defaults/" + name + ".txt")
		if err != nil {
			return nil, fmt.Errorf("read default prompt %s: %w", name, err)
		}
		if dir = strings.TrimSpace(dir); dir != "" {
			override, err := os.ReadFile(filepath.Join(dir, name+".txt"))
			switch {
			case err == nil:
				raw = override
			case !errors.Is(err, os.ErrNotExist):
				return nil, fmt.Errorf("read prompt %s: %w", name, err)
			}
		}
		tmpl, err := template.New(name).Funcs(funcs).Parse(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", name, err)
		}
		if err := tmpl.Execute(&bytes.Buffer{}, data{}); err != nil {
			return nil, fmt.Errorf("check prompt %s: %w", name, err)
		}
		s.templates[name] = tmpl
	}
	return s, nil
}

func (s *Set) render(name string, d data) string {
	var buf bytes.Buffer
	if err := s.templates[name].Execute(&buf, d); err != nil {
		return ""
	}
	return buf.String()
}

// System is the per-participant framing prepended to each conversation turn.
func (s *Set) System(topic, label string) string {
	return s.render(NameSystem, data{Topic: topic, Label: label})
}

// Topic is the opening transcript message.
func (s *Set) Topic(topic string) string {
	return s.render(NameTopic, data{Topic: topic})
}

func (s *Set) Vote(prefix string, labels []string) string {
	return s.render(NameVote, data{Prefix: prefix, Labels: labels})
}

func (s *Set) Judge(prefix string) string {
	return s.render(NameJudge, data{Prefix: prefix})
}

func (s *Set) JudgeRequest(labels []string) string {
	return s.render(NameJudgeRequest, data{Labels: labels})
}

func (s *Set) JudgeCorrection(previous string) string {
	return s.render(NameJudgeCorrection, data{Previous: previous})
}

func (s *Set) JudgeStrict() string {
	return s.render(NameJudgeStrict, data{})
}

func (s *Set) Persona() string {
	return s.render(NamePersona, data{})
}

func (s *Set) TranscriptSim() string {
	return s.render(NameTranscriptSim, data{})
}
