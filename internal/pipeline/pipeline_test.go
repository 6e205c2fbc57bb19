package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localgptd/internal/runtime"
)

type stubModel struct{}

func (stubModel) ModelID() string { return "m" }

type stubTokenizer struct{}

func (stubTokenizer) TokenizerID() string { return "t" }

type stubGenerator struct {
	prompts []string
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return "out", nil
}

type stubRuntime struct {
	runtime.Runtime // panic on anything not overridden
	gen             *stubGenerator
	params          runtime.GenerationParams
	buildErr        error
}

func (s *stubRuntime) TextGeneration(ctx context.Context, m runtime.ModelHandle, t runtime.TokenizerHandle, p runtime.GenerationParams) (runtime.Generator, error) {
	s.params = p
	if s.buildErr != nil {
		return nil, s.buildErr
	}
	return s.gen, nil
}

func TestAssembleAppliesFixedParams(t *testing.T) {
	rt := &stubRuntime{gen: &stubGenerator{}}
	genCfg := runtime.GenerationConfig{"bos_token_id": float64(1)}
	p, err := Assemble(context.Background(), rt, stubModel{}, stubTokenizer{}, genCfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, 512, rt.params.MaxLength)
	assert.Equal(t, 0.0, rt.params.Temperature)
	assert.Equal(t, 0.95, rt.params.TopP)
	assert.Equal(t, 1.15, rt.params.RepetitionPenalty)
	assert.Equal(t, genCfg, rt.params.GenerationConfig)
}

func TestAssemblePropagatesBuildError(t *testing.T) {
	boom := errors.New("no such pipeline task")
	rt := &stubRuntime{buildErr: boom}
	_, err := Assemble(context.Background(), rt, stubModel{}, stubTokenizer{}, nil, zerolog.Nop())
	require.ErrorIs(t, err, boom)
}

func TestGenerateDelegates(t *testing.T) {
	gen := &stubGenerator{}
	rt := &stubRuntime{gen: gen}
	p, err := Assemble(context.Background(), rt, stubModel{}, stubTokenizer{}, nil, zerolog.Nop())
	require.NoError(t, err)

	out, err := p.Generate(context.Background(), "a prompt")
	require.NoError(t, err)
	assert.Equal(t, "out", out)
	assert.Equal(t, []string{"a prompt"}, gen.prompts)
}

func TestGenerateErrorPassesThrough(t *testing.T) {
	gen := &stubGenerator{err: errors.New("runtime gone")}
	rt := &stubRuntime{gen: gen}
	p, err := Assemble(context.Background(), rt, stubModel{}, stubTokenizer{}, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "x")
	require.Error(t, err)
}

func TestPromptTokensNilSafe(t *testing.T) {
	// enc may be nil when the encoding is unavailable offline
	p := &Pipeline{}
	assert.Equal(t, 0, p.PromptTokens("anything"))
}
