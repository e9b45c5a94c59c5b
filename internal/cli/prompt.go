package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/tacogips/stackforge/internal/app"
	"github.com/tacogips/stackforge/internal/render"
)

// surveyPrompter asks questions on the terminal.
type surveyPrompter struct{}

// Ask implements app.Prompter.
func (surveyPrompter) Ask(q app.Question) (any, error) {
	switch q.Kind {
	case app.Password:
		return promptPassword(q)
	case app.Confirm:
		return promptConfirm(q)
	case app.Select:
		return promptSelect(q)
	default:
		return promptInput(q)
	}
}

func promptInput(q app.Question) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: q.Message,
		Default: render.ValueToString(q.Default),
		Help:    q.Help,
	}

	var validators []survey.Validator
	if q.Default == nil {
		validators = append(validators, survey.Required)
	}
	if strings.HasSuffix(q.Key, "_port") {
		validators = append(validators, validatePort)
	}

	var opts []survey.AskOpt
	if len(validators) > 0 {
		opts = append(opts, survey.WithValidator(survey.ComposeValidators(validators...)))
	}
	if err := survey.AskOne(prompt, &result, opts...); err != nil {
		return "", err
	}
	return result, nil
}

func promptPassword(q app.Question) (string, error) {
	var result string
	prompt := &survey.Password{Message: q.Message, Help: q.Help}
	if err := survey.AskOne(prompt, &result, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return result, nil
}

func promptConfirm(q app.Question) (bool, error) {
	def, _ := q.Default.(bool)
	result := false
	prompt := &survey.Confirm{Message: q.Message, Default: def, Help: q.Help}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func promptSelect(q app.Question) (string, error) {
	var result string
	prompt := &survey.Select{Message: q.Message, Options: q.Options, Help: q.Help}
	if def := render.ValueToString(q.Default); def != "" {
		prompt.Default = def
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// validatePort accepts an empty answer or a TCP port number.
func validatePort(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", val)
	}
	if str == "" {
		return nil
	}
	port, err := strconv.Atoi(str)
	if err != nil {
		return fmt.Errorf("must be a number")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be between 1 and 65535")
	}
	return nil
}
