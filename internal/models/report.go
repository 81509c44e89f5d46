package models

import (
	"time"
)

const (
	ReportTargetTopic    = "topic"
	ReportTargetReply    = "reply"
	ReportTargetMaterial = "material"
	ReportTargetSupport  = "support"
)

const (
	ReportStatusReceived  = "Recebida"
	ReportStatusReviewing = "Em análise"
	ReportStatusResolved  = "Resolvida"
	ReportStatusDismissed = "Descartada"
)

// ReportStatuses is the ordered list shown in the admin panel.
var ReportStatuses = []string{ReportStatusReceived, ReportStatusReviewing, ReportStatusResolved, ReportStatusDismissed}

// Report is a denúncia. ReporterID is nil for anonymous reports.
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Kind        string    `gorm:"size:50;not null" json:"tipo_denuncia"`
	Description string    `gorm:"type:text;not null" json:"descricao"`
	TargetType  string    `gorm:"size:20;not null;default:'support'" json:"target_type"`
	TargetID    uint      `gorm:"index" json:"target_id"`
	Status      string    `gorm:"size:50;default:'Recebida'" json:"status"`
	ReporterID  *uint     `gorm:"index" json:"denunciante_id"`
	Reporter    *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt   time.Time `json:"data_envio"`
	UpdatedAt   time.Time `json:"-"`
}

func (r *Report) IsOpen() bool {
	return r.Status == ReportStatusReceived || r.Status == ReportStatusReviewing
}

// SupportTicket is a relato de suporte (bug, suggestion, question).
type SupportTicket struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Kind        string    `gorm:"size:50;not null" json:"tipo_relato"`
	Description string    `gorm:"type:text;not null" json:"descricao"`
	Status      string    `gorm:"size:50;default:'Recebido'" json:"status"`
	ReporterID  *uint     `gorm:"index" json:"relator_id"`
	Reporter    *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt   time.Time `json:"data_envio"`
}

type FAQ struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Question string `gorm:"size:255;not null" json:"pergunta"`
	Answer   string `gorm:"type:text;not null" json:"resposta"`
	Category string `gorm:"size:50" json:"categoria"`
}
