package services

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("redes", "introdução a redes de computadores"))
	assert.Equal(t, 0, PartialRatio("", "qualquer"))
	assert.Less(t, PartialRatio("xyz", "abcdef"), FuzzyThreshold)
	assert.Greater(t, PartialRatio("calculo", "lista de cálculo I"), FuzzyThreshold)
}

func TestFuzzyRank(t *testing.T) {
	titles := []string{"Prova de Física", "Dúvida sobre redes", "Lista de redes neurais", "Horário do ônibus"}
	ranked := FuzzyRank(titles, "Redes", func(s string) string { return s })

	require.Len(t, ranked, 2)
	assert.Equal(t, []string{"Dúvida sobre redes", "Lista de redes neurais"}, Items(ranked))
	assert.Empty(t, FuzzyRank(titles, "  ", func(s string) string { return s }))
}

func TestModerator(t *testing.T) {
	m := NewModerator([]string{" Palavrão ", "", "spam"})

	word, found := m.Match("Título ok", "isto é SPAM puro")
	assert.True(t, found)
	assert.Equal(t, "spam", word)
	assert.ErrorIs(t, m.Check("um PALAVRÃO aqui"), ErrBlockedContent)
	assert.NoError(t, m.Check("conteúdo limpo"))
	assert.NoError(t, NewModerator(nil).Check("qualquer coisa"))
}

func TestCaptcha(t *testing.T) {
	s := NewCaptchaService()
	for i := 0; i < 50; i++ {
		q, answer := s.GenerateMathProblem()
		assert.NotEmpty(t, q)
		assert.GreaterOrEqual(t, answer, 0)
		assert.True(t, s.Verify(" "+strconv.Itoa(answer)+" ", answer))
		assert.False(t, s.Verify(strconv.Itoa(answer+1), answer))
	}
	assert.False(t, s.Verify("3", nil))
	assert.False(t, s.Verify("abc", 3))
}
