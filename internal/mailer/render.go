package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"remindflow/internal/domain"
)

const dueFormat = "Mon, 02 Jan 2006 15:04 MST"

var htmlTmpl = template.Must(template.New("reminder").Parse(`<html>
<body>
  <h2>Reminder: {{.Title}}</h2>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <p><strong>Due:</strong> {{.Due}}</p>
</body>
</html>
`))

type reminderBody struct {
	Title       string
	Description string
	Due         string
}

// RenderReminder produces the HTML and plain-text bodies plus the subject
// line for a reminder event.
func RenderReminder(evt domain.ReminderEvent) (subject, htmlBody, textBody string, err error) {
	data := reminderBody{
		Title:       evt.Title,
		Description: evt.Description,
		Due:         evt.DueAt.Format(dueFormat),
	}

	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render reminder html: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Reminder: %s\n", evt.Title)
	if evt.Description != "" {
		fmt.Fprintf(&text, "\n%s\n", evt.Description)
	}
	fmt.Fprintf(&text, "\nDue: %s\n", data.Due)

	return "Reminder: " + evt.Title, buf.String(), text.String(), nil
}
