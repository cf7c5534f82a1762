package notifier

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"pizzeria-service/config"

	gopkgmail "gopkg.in/gomail.v2"
)

type EmailNotification struct {
	To       string
	Subject  string
	Template string // имя шаблона без расширения, например "order_delivered"
	Data     map[string]any
}

type EmailSender struct {
	cfg *config.Notifier
}

func NewEmailSender(cfg *config.Notifier) *EmailSender {
	return &EmailSender{cfg: cfg}
}

func (s *EmailSender) SendEmail(n EmailNotification) error {
	m, err := s.buildMessage(n)
	if err != nil {
		return err
	}
	d := gopkgmail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPassword)
	d.SSL = s.cfg.SMTPSSL
	return d.DialAndSend(m)
}

func (s *EmailSender) buildMessage(n EmailNotification) (*gopkgmail.Message, error) {
	htmlBody, err := renderHTML(s.cfg.TMPLDir, n.Template, n.Data)
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	plainBody, err := renderPlain(s.cfg.TMPLDir, n.Template, n.Data)
	if err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.SMTPFrom)
	m.SetHeader("To", n.To)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if strings.Contains(htmlBody, "cid:logo") {
		iconPath := filepath.Join(s.cfg.TMPLDir, "icon.png")
		if _, errStat := os.Stat(iconPath); errStat == nil {
			m.Embed(iconPath, gopkgmail.SetHeader(map[string][]string{"Content-ID": {"<logo>"}}))
		}
	}
	return m, nil
}

func renderHTML(dir, name string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(dir, name+".html"))
	if err != nil {
		return "", err
	}
	tmpl, err := htmltemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Текстовая версия письма не экранируется как HTML.
func renderPlain(dir, name string, data map[string]any) (string, error) {
	content, err := os.ReadFile(filepath.Join(dir, name+".txt"))
	if err != nil {
		return "", err
	}
	tmpl, err := texttemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
