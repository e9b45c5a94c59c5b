package app

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/stackforge/internal/config"
)

type recordingPrompter struct {
	asked   []string
	answers map[string]any
	err     error
}

func (p *recordingPrompter) Ask(q Question) (any, error) {
	p.asked = append(p.asked, q.Key)
	if p.err != nil {
		return nil, p.err
	}
	if v, ok := p.answers[q.Key]; ok {
		return v, nil
	}
	return q.Default, nil
}

func TestCollectSkipsPresetAnswers(t *testing.T) {
	p := &recordingPrompter{answers: map[string]any{"db_name": "shop"}}
	a := New(io.Discard, p)

	opts := config.DefaultOptions()
	opts.Answers = map[string]any{"domain": "preset.example.com", "http_port": 443}

	require.NoError(t, a.Collect(opts, SetupQuestions()))
	assert.Equal(t, []string{"db_name", "db_user", "env", "bot_manager"}, p.asked)
	assert.Equal(t, "preset.example.com", opts.Answers["domain"])
	assert.Equal(t, 443, opts.Answers["http_port"])
	assert.Equal(t, "shop", opts.Answers["db_name"])
	assert.Equal(t, "app", opts.Answers["db_user"])
}

func TestCollectYesUsesDefaults(t *testing.T) {
	p := &recordingPrompter{}
	a := New(io.Discard, p)

	opts := config.DefaultOptions()
	opts.Yes = true

	require.NoError(t, a.Collect(opts, SetupQuestions()))
	assert.Empty(t, p.asked)
	assert.Equal(t, "localhost", opts.Answers["domain"])
	assert.Equal(t, false, opts.Answers["bot_manager"])
}

func TestCollectPromptError(t *testing.T) {
	p := &recordingPrompter{err: errors.New("interrupt")}
	a := New(io.Discard, p)

	err := a.Collect(config.DefaultOptions(), SetupQuestions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt domain")
}
