package app

import (
	"fmt"

	"github.com/tacogips/stackforge/internal/config"
)

// QuestionKind selects the prompt widget.
type QuestionKind int

const (
	// Input asks for free text.
	Input QuestionKind = iota
	// Password asks for hidden text.
	Password
	// Confirm asks yes or no.
	Confirm
	// Select asks to pick one of Options.
	Select
)

// Question is one interactive prompt whose answer is stored under Key.
type Question struct {
	Key     string
	Message string
	Kind    QuestionKind
	Default any
	Options []string
	Help    string
}

// Prompter asks a single question.
type Prompter interface {
	Ask(q Question) (any, error)
}

// Collect fills opts.Answers for every question that is not answered yet.
// Keys already present (from --set, flags or the config file) are never
// prompted for. With opts.Yes or no Prompter the default is taken.
func (a *App) Collect(opts *config.Options, questions []Question) error {
	for _, q := range questions {
		if v, ok := opts.Answer(q.Key); ok {
			log.Debugf("answer %s preset to %v", q.Key, v)
			continue
		}
		if opts.Yes || a.Prompter == nil {
			if q.Default != nil {
				opts.SetAnswer(q.Key, q.Default)
			}
			continue
		}
		v, err := a.Prompter.Ask(q)
		if err != nil {
			return fmt.Errorf("prompt %s: %w", q.Key, err)
		}
		opts.SetAnswer(q.Key, v)
	}
	return nil
}

// SetupQuestions are asked by the setup workflow.
func SetupQuestions() []Question {
	return []Question{
		{Key: "domain", Message: "Domain name:", Kind: Input, Default: "localhost"},
		{Key: "http_port", Message: "HTTP port:", Kind: Input, Default: "80"},
		{Key: "db_name", Message: "Database name:", Kind: Input, Default: "app"},
		{Key: "db_user", Message: "Database user:", Kind: Input, Default: "app"},
		{
			Key:     "env",
			Message: "Environment:",
			Kind:    Select,
			Default: "production",
			Options: []string{"production", "development"},
		},
		{Key: "bot_manager", Message: "Enable the bot manager?", Kind: Confirm, Default: false},
	}
}
