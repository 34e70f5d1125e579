package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed templates
var templateFS embed.FS

type mailSender interface {
	send(recipient, templateFile string, data any) error
}

type mailer struct {
	dialer *mail.Dialer
	sender string
}

func newMailer(host string, port int, username string, password string, sender string) *mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second
	return &mailer{
		dialer: dialer,
		sender: sender,
	}
}

type renderedMail struct {
	subject   string
	plainBody string
	htmlBody  string
}

// renderMail executes the subject, plainBody and htmlBody blocks of templateFile.
func renderMail(templateFile string, data any) (renderedMail, error) {
	var rm renderedMail
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return rm, err
	}

	var buf bytes.Buffer
	for _, part := range []struct {
		name string
		dst  *string
	}{
		{"subject", &rm.subject},
		{"plainBody", &rm.plainBody},
		{"htmlBody", &rm.htmlBody},
	} {
		buf.Reset()
		if err := tmpl.ExecuteTemplate(&buf, part.name, data); err != nil {
			return rm, err
		}
		*part.dst = buf.String()
	}
	return rm, nil
}

// send delivers templateFile to recipient, retrying up to three times.
func (m *mailer) send(recipient, templateFile string, data any) error {
	rm, err := renderMail(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", rm.subject)
	msg.SetBody("text/plain", rm.plainBody)
	msg.AddAlternative("text/html", rm.htmlBody)

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return err
}

// sendMail delivers a notification in the background. It is a no-op when no
// SMTP server is configured.
func (app *application) sendMail(recipient, templateFile string, data any) {
	if app.mailer == nil {
		return
	}
	app.background(func() {
		err := app.mailer.send(recipient, templateFile, data)
		if err != nil {
			log.Printf("send %s to %s: %v", templateFile, recipient, err)
		}
	})
}

func (app *application) background(fn func()) {
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				log.Println(fmt.Errorf("background task: %v", err))
			}
		}()
		fn()
	}()
}
