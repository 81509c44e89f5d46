package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"siif/internal/db"
	"siif/internal/models"
	"siif/internal/services"
	"siif/internal/utils"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errScanFindings = errors.New("arquivos suspeitos encontrados")

type userParams struct {
	Matricula string
	Email     string
	Name      string
	Password  string
	Admin     bool
}

func createUser(conn *gorm.DB, p userParams) (*models.User, error) {
	p.Matricula = strings.TrimSpace(p.Matricula)
	if p.Matricula == "" || p.Password == "" {
		return nil, errors.New("matrícula e senha são obrigatórias")
	}
	if p.Email == "" {
		p.Email = p.Matricula + "@siif.local"
	}
	hash, err := utils.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Matricula:    p.Matricula,
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		Name:         strings.TrimSpace(p.Name),
		PasswordHash: hash,
		IsAdmin:      p.Admin,
		Profile:      &models.Profile{},
	}
	if err := conn.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", p.Matricula, err)
	}
	return user, nil
}

func newCreateUserCmd() *cobra.Command {
	var p userParams
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Cria um usuário com matrícula e senha",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := createUser(db.DB, p)
			if err != nil {
				return err
			}
			cmd.Printf("Usuário %s (%s) criado com id %d\n", user.DisplayName(), user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&p.Matricula, "matricula", "", "matrícula do usuário")
	cmd.Flags().StringVar(&p.Email, "email", "", "e-mail")
	cmd.Flags().StringVar(&p.Name, "nome", "", "nome completo")
	cmd.Flags().StringVar(&p.Password, "senha", "", "senha")
	cmd.Flags().BoolVar(&p.Admin, "admin", false, "conceder acesso administrativo")
	cmd.MarkFlagRequired("matricula")
	cmd.MarkFlagRequired("senha")
	return cmd
}

// seedMaterials adds link-only materials authored by the first user,
// creating a test account when the database has none.
func seedMaterials(conn *gorm.DB, count int, category string) (int, error) {
	var author models.User
	err := conn.Order("id").First(&author).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created, cerr := createUser(conn, userParams{
			Matricula: "00000000",
			Email:     "teste@siif.local",
			Name:      "Usuario Teste",
			Password:  "123456",
		})
		if cerr != nil {
			return 0, cerr
		}
		author = *created
	} else if err != nil {
		return 0, err
	}

	category = utils.Capitalize(category)
	materials := make([]models.Material, 0, count)
	for i := 1; i <= count; i++ {
		materials = append(materials, models.Material{
			Title:         fmt.Sprintf("Material de Teste %d - %s", i, category),
			Description:   fmt.Sprintf("Descrição longa para testar o layout do card número %d.", i),
			ExternalLink:  "https://portal.ifrn.edu.br",
			Category:      category,
			AuthorID:      author.ID,
			DownloadCount: i * 5,
		})
	}
	if len(materials) == 0 {
		return 0, nil
	}
	if err := conn.Create(&materials).Error; err != nil {
		return 0, err
	}
	utils.GetCache().Delete(utils.CacheKeyMaterialCategories)
	return len(materials), nil
}

func newSeedMaterialsCmd() *cobra.Command {
	var count int
	var category string
	cmd := &cobra.Command{
		Use:   "seed-materials",
		Short: "Insere materiais de teste",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := seedMaterials(db.DB, count, category)
			if err != nil {
				return err
			}
			cmd.Printf("%d materiais adicionados em %q\n", n, utils.Capitalize(category))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "quantidade", 10, "número de materiais")
	cmd.Flags().StringVar(&category, "categoria", "Informática", "categoria dos materiais")
	return cmd
}

func newScanFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan-files",
		Short: "Procura uploads com extensões executáveis ou suspeitas",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := services.NewStorage(cfg.Server.UploadDir, cfg.Server.MaxUploadMB)
			report, err := services.ScanUploads(db.DB, store)
			if err != nil {
				return err
			}
			cmd.Printf("%d materiais e %d arquivos verificados\n", report.MaterialsChecked, report.FilesChecked)
			if report.Clean() {
				cmd.Println("Nenhum arquivo suspeito encontrado.")
				return nil
			}
			for _, f := range report.Findings {
				cmd.Printf("[%s] %s: %s\n", f.Source, f.Path, f.Reason)
			}
			return errScanFindings
		},
	}
}

func newFetchNewsCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "fetch-news",
		Short: "Executa a agregação de notícias uma vez",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			added, err := services.NewNewsAggregator(cfg.News).Run(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("%d notícias novas\n", added)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "tempo máximo da coleta")
	return cmd
}
