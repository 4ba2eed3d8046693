package iamapi

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

// The one-time endpoints are the only ones a human opens in a browser, so
// they render minimal standalone HTML instead of JSON.

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; background: #f5f6f8; margin: 0; }
    .card { max-width: 420px; margin: 80px auto; background: #fff; border-radius: 8px;
            padding: 32px; box-shadow: 0 1px 4px rgba(0,0,0,.12); }
    h1 { font-size: 1.3em; margin-top: 0; }
    p { color: #444; }
    .error { color: #b00020; }
    label { display: block; margin: 12px 0 4px; color: #333; }
    input[type=password] { width: 100%; padding: 8px; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
    button { margin-top: 16px; padding: 10px 20px; background: #2d6cdf; color: #fff;
             border: none; border-radius: 4px; cursor: pointer; }
  </style>
</head>
<body>
  <div class="card">
    <h1>{{.Title}}</h1>
    {{if .Message}}<p>{{.Message}}</p>{{end}}
    {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
    {{if .ShowForm}}
    <form method="POST" action="/one-time/forgot-password">
      <input type="hidden" name="token" value="{{.Token}}">
      <label for="new_password">New password</label>
      <input type="password" id="new_password" name="new_password" required>
      <label for="confirm_password">Confirm password</label>
      <input type="password" id="confirm_password" name="confirm_password" required>
      <button type="submit">Change password</button>
    </form>
    {{end}}
  </div>
</body>
</html>`))

type pageData struct {
	Title    string
	Message  string
	Error    string
	ShowForm bool
	Token    string
}

func renderPage(c *fiber.Ctx, status int, data pageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
