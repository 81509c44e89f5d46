package db

import (
	"errors"
	"fmt"
	"log"

	"siif/internal/config"
	"siif/internal/models"
	"siif/internal/utils"

	"gorm.io/gorm"
)

// Seed creates the first admin, the default FAQ and the campus map points.
// Each part is skipped when its table already has rows.
func Seed(conn *gorm.DB, admin config.AdminConfig) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := seedAdmin(tx, admin); err != nil {
			return err
		}
		if err := seedFAQ(tx); err != nil {
			return err
		}
		return seedPoints(tx)
	})
}

func seedAdmin(tx *gorm.DB, admin config.AdminConfig) error {
	if admin.Matricula == "" || admin.Password == "" {
		return nil
	}
	var existing models.User
	err := tx.Where("matricula = ?", admin.Matricula).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	email := admin.Email
	if email == "" {
		email = admin.Matricula + "@siif.local"
	}
	user := models.User{
		Matricula:    admin.Matricula,
		Name:         "Administrador",
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		Profile:      &models.Profile{},
	}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Printf("Admin user %s created", admin.Matricula)
	return nil
}

func seedFAQ(tx *gorm.DB) error {
	var count int64
	tx.Model(&models.FAQ{}).Count(&count)
	if count > 0 {
		return nil
	}
	faqs := []models.FAQ{
		{Question: "Como faço login no SIIF?", Answer: "Use o botão \"Entrar com SUAP\" ou sua matrícula e senha cadastradas.", Category: "Conta"},
		{Question: "Como envio um material?", Answer: "Acesse Materiais, clique em Adicionar e envie um arquivo ou um link externo.", Category: "Materiais"},
		{Question: "Quais arquivos posso enviar?", Answer: "PDF, documentos do Office, TXT, imagens JPG/PNG e vídeos MP4.", Category: "Materiais"},
		{Question: "Como denuncio um conteúdo?", Answer: "Use o botão Denunciar no tópico ou o formulário anônimo na página de suporte.", Category: "Segurança"},
		{Question: "Como entro em uma comunidade restrita?", Answer: "Clique em Participar. Um moderador vai aprovar sua solicitação.", Category: "Comunidades"},
	}
	return tx.Create(&faqs).Error
}

func seedPoints(tx *gorm.DB) error {
	var count int64
	tx.Model(&models.PointOfInterest{}).Count(&count)
	if count > 0 {
		return nil
	}
	points := []models.PointOfInterest{
		{Name: "Biblioteca", Description: "Acervo e salas de estudo", Latitude: -5.8115, Longitude: -35.2053, Kind: "estudo"},
		{Name: "Refeitório", Description: "Almoço e jantar", Latitude: -5.8112, Longitude: -35.2061, Kind: "alimentacao"},
		{Name: "Ginásio", Description: "Quadra poliesportiva", Latitude: -5.8120, Longitude: -35.2048, Kind: "esporte"},
		{Name: "Auditório", Description: "Eventos e palestras", Latitude: -5.8108, Longitude: -35.2057, Kind: "evento"},
	}
	return tx.Create(&points).Error
}
