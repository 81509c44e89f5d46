package handlers

import (
	"errors"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var matriculaRe = regexp.MustCompile(`^[0-9]{5,20}$`)

var registerOnce sync.Once

// RegisterValidators adds the custom rules to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterValidation("matricula", func(fl validator.FieldLevel) bool {
				return matriculaRe.MatchString(fl.Field().String())
			})
		}
	})
}

type LoginForm struct {
	Matricula string `form:"matricula" binding:"required"`
	Password  string `form:"password" binding:"required"`
	Next      string `form:"next"`
}

type RegisterForm struct {
	Matricula       string `form:"matricula" binding:"required,matricula"`
	Name            string `form:"name" binding:"required,max=100"`
	Email           string `form:"email" binding:"required,email,max=120"`
	Password        string `form:"password" binding:"required,min=6"`
	PasswordConfirm string `form:"password_confirm" binding:"required,eqfield=Password"`
}

type TopicForm struct {
	Title       string   `form:"title" binding:"required,max=200"`
	Content     string   `form:"content" binding:"required"`
	CommunityID uint     `form:"community_id"`
	Options     []string `form:"opcoes"`
}

type ReplyForm struct {
	Content  string `form:"content" binding:"required,max=5000"`
	ParentID uint   `form:"parent_id"`
}

type CommunityForm struct {
	Name        string `form:"name" binding:"required,min=3,max=100"`
	Description string `form:"description" binding:"max=1000"`
	Type        string `form:"type" binding:"omitempty,oneof=public restricted"`
}

type MaterialForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=2000"`
	Link        string `form:"link" binding:"omitempty,url,max=500"`
	Category    string `form:"categoria" binding:"max=100"`
	NewCategory string `form:"nova_categoria" binding:"max=100"`
	Tags        string `form:"tags" binding:"max=300"`
}

type ReportForm struct {
	TargetType  string `form:"target_type" binding:"required,oneof=topic reply material"`
	TargetID    uint   `form:"target_id" binding:"required"`
	Kind        string `form:"tipo" binding:"required,max=50"`
	Description string `form:"descricao" binding:"required,max=2000"`
}

type SupportForm struct {
	Subject     string `form:"assunto" binding:"max=100"`
	Kind        string `form:"tipo"`
	Description string `form:"descricao" binding:"max=2000"`
	Captcha     string `form:"captcha"`
}

type TicketForm struct {
	Kind        string `form:"tipo" binding:"required,oneof=bug sugestao duvida"`
	Description string `form:"descricao" binding:"required,max=2000"`
}

type ProfileForm struct {
	Name   string `form:"name" binding:"max=100"`
	Curso  string `form:"curso" binding:"max=100"`
	Campus string `form:"campus" binding:"max=50"`
	Bio    string `form:"bio" binding:"max=500"`
}

type KanbanForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Description string `form:"description" binding:"max=2000"`
	Column      string `form:"column" binding:"omitempty,oneof=todo doing done"`
	DueDate     string `form:"due_date"`
}

type KanbanMoveForm struct {
	Column   string `form:"column" binding:"required,oneof=todo doing done"`
	Position int    `form:"position" binding:"min=0"`
}

type FAQForm struct {
	Question string `form:"pergunta" binding:"required,max=255"`
	Answer   string `form:"resposta" binding:"required"`
	Category string `form:"categoria" binding:"max=50"`
}

var fieldLabels = map[string]string{
	"Matricula":       "Matrícula",
	"Name":            "Nome",
	"Email":           "E-mail",
	"Password":        "Senha",
	"PasswordConfirm": "Confirmação de senha",
	"Title":           "Título",
	"Content":         "Conteúdo",
	"Description":     "Descrição",
	"Link":            "Link",
	"Kind":            "Tipo",
	"TargetType":      "Alvo",
	"TargetID":        "Alvo",
	"Question":        "Pergunta",
	"Answer":          "Resposta",
	"Bio":             "Bio",
	"Column":          "Coluna",
}

// validationMessage turns a binding error into a Portuguese sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Dados inválidos."
	}
	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " é obrigatório."
	case "email":
		return "E-mail inválido."
	case "matricula":
		return "A matrícula deve conter apenas números."
	case "min":
		if fe.Field() == "Password" {
			return "A senha deve ter pelo menos " + fe.Param() + " caracteres."
		}
		return label + " é muito curto."
	case "max":
		return label + " deve ter no máximo " + fe.Param() + " caracteres."
	case "eqfield":
		return "As senhas não coincidem."
	case "url":
		return "Link inválido."
	case "oneof":
		return label + " inválido."
	}
	return label + " inválido."
}
