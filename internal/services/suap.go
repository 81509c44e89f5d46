package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"siif/internal/config"

	"golang.org/x/oauth2"
)

var ErrSUAPDisabled = errors.New("login com SUAP não está configurado")

// SUAPUser is the subset of /api/eu/ the platform uses.
type SUAPUser struct {
	Identificacao     string `json:"identificacao"`
	NomeUsual         string `json:"nome_usual"`
	Email             string `json:"email"`
	EmailPreferencial string `json:"email_preferencial"`
	Campus            string `json:"campus"`
	Foto              string `json:"foto"`
	TipoUsuario       string `json:"tipo_usuario"`
}

// PreferredEmail falls back to the institutional address.
func (u *SUAPUser) PreferredEmail() string {
	if u.EmailPreferencial != "" {
		return u.EmailPreferencial
	}
	return u.Email
}

// BoletimEntry is one discipline row of the student report card.
type BoletimEntry struct {
	CodigoDiario string   `json:"codigo_diario"`
	Disciplina   string   `json:"disciplina"`
	CargaHoraria int      `json:"carga_horaria"`
	NumeroFaltas int      `json:"numero_faltas"`
	Frequencia   float64  `json:"percentual_carga_horaria_frequentada"`
	Situacao     string   `json:"situacao"`
	MediaFinal   *float64 `json:"media_final_disciplina"`
}

type SUAPService struct {
	cfg    config.SUAPConfig
	oauth  *oauth2.Config
	client *http.Client
}

func NewSUAPService(cfg config.SUAPConfig) *SUAPService {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &SUAPService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identificacao", "email", "documentos_pessoais"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/o/authorize/",
				TokenURL: base + "/o/token/",
			},
		},
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *SUAPService) Enabled() bool {
	return s.cfg.ClientID != "" && s.cfg.ClientSecret != ""
}

func (s *SUAPService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *SUAPService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if !s.Enabled() {
		return nil, ErrSUAPDisabled
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	return s.oauth.Exchange(ctx, code)
}

func (s *SUAPService) get(ctx context.Context, token *oauth2.Token, path string, out interface{}) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	client := s.oauth.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(s.cfg.BaseURL, "/")+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("suap %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("suap %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Me fetches the authenticated user from /api/eu/.
func (s *SUAPService) Me(ctx context.Context, token *oauth2.Token) (*SUAPUser, error) {
	var u SUAPUser
	if err := s.get(ctx, token, "/api/eu/", &u); err != nil {
		return nil, err
	}
	if u.Identificacao == "" {
		return nil, errors.New("suap: resposta sem identificação")
	}
	return &u, nil
}

// Boletim fetches the grades of one school period.
func (s *SUAPService) Boletim(ctx context.Context, token *oauth2.Token, ano, periodo int) ([]BoletimEntry, error) {
	var entries []BoletimEntry
	path := fmt.Sprintf("/api/v2/minhas-informacoes/boletim/%d/%d/", ano, periodo)
	if err := s.get(ctx, token, path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
