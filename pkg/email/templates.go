package email

import (
	"fmt"
	"html"
	"strings"
)

// NotificationData feeds the transactional templates.
type NotificationData struct {
	To        string
	Kind      string
	Name      string
	Title     string
	Lines     []string
	ActionURL string
	Action    string
}

// BuildNotificationEmail renders a plain and an HTML body for a portal
// notification such as a booking confirmation or a status change.
func BuildNotificationEmail(cfg Config, data NotificationData) Message {
	appName := cfg.AppName
	if appName == "" {
		appName = "MedTrack"
	}
	color := cfg.PrimaryColor
	if color == "" {
		color = "#0f766e"
	}
	name := data.Name
	if name == "" {
		name = "there"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", name)
	for _, l := range data.Lines {
		text.WriteString(l)
		text.WriteString("\n")
	}
	if data.ActionURL != "" {
		fmt.Fprintf(&text, "\n%s: %s\n", actionLabel(data.Action), data.ActionURL)
	}
	fmt.Fprintf(&text, "\nThe %s Team", appName)

	var body strings.Builder
	fmt.Fprintf(&body, `<h2 style="color: %s;">Hi %s,</h2>`, color, html.EscapeString(name))
	for _, l := range data.Lines {
		fmt.Fprintf(&body, "<p>%s</p>", html.EscapeString(l))
	}
	if data.ActionURL != "" {
		fmt.Fprintf(&body,
			`<p style="text-align: center; margin: 30px 0;"><a href="%s" style="background-color: %s; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">%s</a></p>`,
			html.EscapeString(data.ActionURL), color, html.EscapeString(actionLabel(data.Action)))
	}
	fmt.Fprintf(&body, `<p style="color: #6b7280; font-size: 14px; margin-top: 30px;">The %s Team</p>`, html.EscapeString(appName))

	return Message{
		To:      []string{data.To},
		Subject: fmt.Sprintf("[%s] %s", appName, data.Title),
		Kind:    data.Kind,
		Text:    text.String(),
		HTML:    wrapHTML(body.String()),
	}
}

func actionLabel(a string) string {
	if a == "" {
		return "Open portal"
	}
	return a
}

func wrapHTML(inner string) string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
` + inner + `
</body>
</html>`
}
