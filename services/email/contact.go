package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"senadirectory/models"
)

var contactTemplate = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>Nuevo mensaje de contacto</h2>
{{if .CompanySlug}}<p><strong>Perfil:</strong> {{.CompanySlug}}</p>{{end}}
<p><strong>Nombre:</strong> {{.Name}}</p>
<p><strong>Correo:</strong> {{.Email}}</p>
{{if .Phone}}<p><strong>Teléfono:</strong> {{.Phone}}</p>{{end}}
<p><strong>Mensaje:</strong></p>
<p>{{.Message}}</p>
</body></html>`))

// BuildContactEmail renders a contact form submission into an email.
func BuildContactEmail(msg models.ContactMessage, userAgent string) (models.EmailInput, error) {
	var html bytes.Buffer
	if err := contactTemplate.Execute(&html, msg); err != nil {
		return models.EmailInput{}, fmt.Errorf("email: render contact message: %w", err)
	}

	var plain strings.Builder
	fmt.Fprintf(&plain, "Nombre: %s\nCorreo: %s\n", msg.Name, msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&plain, "Teléfono: %s\n", msg.Phone)
	}
	fmt.Fprintf(&plain, "\n%s\n", msg.Message)

	return models.EmailInput{
		To:          msg.To,
		Subject:     fmt.Sprintf("Nuevo mensaje de contacto de %s", msg.Name),
		Content:     plain.String(),
		HTMLContent: html.String(),
		UserAgent:   userAgent,
	}, nil
}
