package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"mime"
	"net/smtp"
	"strings"

	"siif/internal/config"
	"siif/web"
)

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

func NewMailService(cfg config.SMTPConfig) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.User != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Println("MailService disabled: SMTP not configured")
	}
	return &MailService{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		Password: cfg.Password,
		From:     cfg.From,
		Enabled:  enabled,
	}
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue keeps user text on a single header line.
func headerValue(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

func (s *MailService) buildMessage(to []string, subject, body string) []byte {
	recipients := make([]string, len(to))
	for i, addr := range to {
		recipients[i] = headerValue(addr)
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: SIIF <%s>\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n%s",
		strings.Join(recipients, ","), headerValue(s.From),
		mime.QEncoding.Encode("utf-8", headerValue(subject)), body))
}

func (s *MailService) sendAsync(to []string, subject string, body string) {
	if !s.Enabled {
		return
	}

	go func() {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

		if err := smtp.SendMail(addr, auth, s.From, to, s.buildMessage(to, subject, body)); err != nil {
			log.Printf("Failed to send email to %v: %v", to, err)
		} else {
			log.Printf("Email sent to %v: %s", to, subject)
		}
	}()
}

func (s *MailService) parseTemplate(templateName string, data interface{}) (string, error) {
	t, err := template.ParseFS(web.Templates, "templates/email/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// SendReplyNotification mails the author of a topic or reply about a new answer.
func (s *MailService) SendReplyNotification(email, actor, topicTitle, replyContent, link string) {
	if !s.Enabled || email == "" {
		return
	}
	body, err := s.parseTemplate("reply.html", map[string]string{
		"Actor":        actor,
		"TopicTitle":   topicTitle,
		"ReplyContent": replyContent,
		"Link":         link,
	})
	if err != nil {
		log.Printf("Error rendering reply email: %v", err)
		return
	}
	s.sendAsync([]string{email}, actor+" respondeu em \""+topicTitle+"\"", body)
}

// SendReportStatus tells a reporter their denúncia changed status.
func (s *MailService) SendReportStatus(email string, reportID uint, status string) {
	if !s.Enabled || email == "" {
		return
	}
	body, err := s.parseTemplate("report_status.html", map[string]interface{}{
		"ReportID": reportID,
		"Status":   status,
	})
	if err != nil {
		log.Printf("Error rendering report email: %v", err)
		return
	}
	s.sendAsync([]string{email}, fmt.Sprintf("Sua denúncia #%d: %s", reportID, status), body)
}
