package services

import (
	"strings"
	"testing"

	"siif/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageHeaders(t *testing.T, msg []byte) []string {
	t.Helper()
	head, _, found := strings.Cut(string(msg), "\r\n\r\n")
	require.True(t, found, "message without header/body separator")
	return strings.Split(head, "\r\n")
}

func TestBuildMessageKeepsSubjectOnOneLine(t *testing.T) {
	s := NewMailService(config.SMTPConfig{From: "siif@ifrn.edu.br"})

	msg := s.buildMessage([]string{"ana@ifrn.edu.br"}, "Fulano respondeu em \"Oi\r\nBcc: spam@evil.example\"", "<p>corpo</p>")
	headers := messageHeaders(t, msg)

	require.Len(t, headers, 5)
	for _, h := range headers {
		assert.False(t, strings.HasPrefix(h, "Bcc:"), h)
	}
	assert.Equal(t, "Subject: Fulano respondeu em \"Oi Bcc: spam@evil.example\"", headers[2])
	assert.True(t, strings.HasSuffix(string(msg), "\r\n\r\n<p>corpo</p>"))
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	s := NewMailService(config.SMTPConfig{From: "siif@ifrn.edu.br"})

	headers := messageHeaders(t, s.buildMessage([]string{"ana@ifrn.edu.br\nBcc: x@y.z"}, "Sua denúncia #3: Em análise", ""))

	assert.Equal(t, "To: ana@ifrn.edu.br Bcc: x@y.z", headers[0])
	assert.True(t, strings.HasPrefix(headers[2], "Subject: =?utf-8?q?"), headers[2])
	assert.NotContains(t, headers[2], "ú")
}

func TestHeaderValue(t *testing.T) {
	assert.Equal(t, "a b c", headerValue(" a\r\nb\rc "))
}
