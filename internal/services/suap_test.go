package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"siif/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newSUAPServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-teste" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/eu/":
			fmt.Fprint(w, `{"identificacao":"20211014040001","nome_usual":"Ana Souza","email":"ana@escolar.ifrn.edu.br","email_preferencial":"","campus":"CNAT"}`)
		case "/api/v2/minhas-informacoes/boletim/2024/1/":
			fmt.Fprint(w, `[{"disciplina":"Cálculo I","numero_faltas":4,"situacao":"Aprovado","media_final_disciplina":8.5},
				{"disciplina":"Física","numero_faltas":0,"situacao":"Cursando","media_final_disciplina":null}]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSUAPService(t *testing.T) {
	srv := newSUAPServer(t)
	s := NewSUAPService(config.SUAPConfig{ClientID: "id", ClientSecret: "segredo", BaseURL: srv.URL + "/"})
	require.True(t, s.Enabled())
	assert.Contains(t, s.AuthCodeURL("estado"), srv.URL+"/o/authorize/")

	token := &oauth2.Token{AccessToken: "token-teste", TokenType: "Bearer"}
	me, err := s.Me(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "20211014040001", me.Identificacao)
	assert.Equal(t, "ana@escolar.ifrn.edu.br", me.PreferredEmail())

	entries, err := s.Boletim(context.Background(), token, 2024, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].MediaFinal)
	assert.Equal(t, 8.5, *entries[0].MediaFinal)
	assert.Nil(t, entries[1].MediaFinal)

	_, err = s.Boletim(context.Background(), token, 2023, 2)
	assert.Error(t, err)

	_, err = s.Me(context.Background(), &oauth2.Token{AccessToken: "outro"})
	assert.Error(t, err)
}

func TestSUAPDisabled(t *testing.T) {
	s := NewSUAPService(config.SUAPConfig{BaseURL: "https://suap.ifrn.edu.br"})
	assert.False(t, s.Enabled())
	_, err := s.Exchange(context.Background(), "codigo")
	assert.ErrorIs(t, err, ErrSUAPDisabled)
}
