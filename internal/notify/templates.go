package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/hackgods/clinic-slot-booking/internal/appointment"
)

const (
	LocaleEnglish    = "en"
	LocalePortuguese = "pt-BR"
)

type confirmationTemplate struct {
	subject string
	body    *template.Template
	date    func(time.Time) string
}

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var confirmations = map[string]confirmationTemplate{
	LocaleEnglish: {
		subject: "Your Appointment Confirmation",
		date:    func(d time.Time) string { return d.Format("January 2, 2006") },
		body: template.Must(template.New("en").Parse(`Dear {{.Name}},

Thank you for scheduling an appointment with our clinic.

Appointment Details:
- Date: {{.Date}}
- Time: {{.Time}}
{{- if .Emergency}}
- This is marked as an EMERGENCY appointment
{{- end}}

Please arrive 15 minutes before your scheduled time. If you need to reschedule or cancel your appointment, please contact us as soon as possible.

Best regards,
Clinic Scheduler Team
`)),
	},
	LocalePortuguese: {
		subject: "Confirmação da Sua Consulta",
		date: func(d time.Time) string {
			return fmt.Sprintf("%d de %s de %d", d.Day(), ptMonths[d.Month()-1], d.Year())
		},
		body: template.Must(template.New("pt-BR").Parse(`Prezado(a) {{.Name}},

Obrigado por agendar uma consulta em nossa clínica.

Detalhes da Consulta:
- Data: {{.Date}}
- Horário: {{.Time}}
{{- if .Emergency}}
- Esta consulta está marcada como EMERGÊNCIA
{{- end}}

Por favor, chegue 15 minutos antes do horário agendado. Se precisar remarcar ou cancelar sua consulta, entre em contato conosco o mais breve possível.

Atenciosamente,
Equipe da Clínica
`)),
	},
}

// RenderConfirmation builds the confirmation email for appt. Unknown
// locales fall back to English; an unparseable date is printed as stored.
func RenderConfirmation(appt appointment.Appointment, locale string) (EmailMessage, error) {
	tmpl, ok := confirmations[locale]
	if !ok {
		tmpl = confirmations[LocaleEnglish]
	}

	date := appt.Date
	if d, err := time.Parse("2006-01-02", appt.Date); err == nil {
		date = tmpl.date(d)
	}

	var buf bytes.Buffer
	err := tmpl.body.Execute(&buf, struct {
		Name      string
		Date      string
		Time      string
		Emergency bool
	}{appt.UserName, date, appt.Time, appt.IsEmergency})
	if err != nil {
		return EmailMessage{}, fmt.Errorf("render confirmation: %w", err)
	}

	return EmailMessage{
		To:      appt.UserEmail,
		ToName:  appt.UserName,
		Subject: tmpl.subject,
		Body:    strings.TrimLeft(buf.String(), "\n"),
	}, nil
}
