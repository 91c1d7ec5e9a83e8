package templates

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`
<html>
  <body style="font-family:sans-serif;color:#222">
    <h2>Welcome to StreamTube, {{.FullName}}!</h2>
    <p>Your channel <b>@{{.Username}}</b> is ready. Upload your first video
    and start building your audience.</p>
    <p>— The StreamTube team</p>
  </body>
</html>
`))

// Render returns subject, text and HTML bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	switch name {
	case "welcome":
		var buf bytes.Buffer
		if err = welcomeHTML.Execute(&buf, data); err != nil {
			return "", "", "", err
		}
		subject = "Welcome to StreamTube"
		text = fmt.Sprintf("Welcome to StreamTube, %v! Your channel @%v is ready.",
			data["FullName"], data["Username"])
		return subject, text, buf.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
}
