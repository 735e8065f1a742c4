package routes

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/roomly-app/MessagingBack/internal/config"
)

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    :root {
      color-scheme: light;
      --bg: #f4f6f8;
      --panel: #ffffff;
      --text: #17212b;
      --muted: #5b6a79;
      --accent: #2563eb;
      --border: #d6dde5;
      --code-bg: #0f172a;
      --code-text: #e2e8f0;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Segoe UI", system-ui, sans-serif;
      color: var(--text);
      background: linear-gradient(180deg, #fbfcfd 0%, var(--bg) 100%);
    }
    main {
      max-width: 960px;
      margin: 0 auto;
      padding: 48px 20px 64px;
    }
    .hero, .panel {
      background: var(--panel);
      border: 1px solid var(--border);
      border-radius: 14px;
      box-shadow: 0 16px 48px rgba(23, 33, 43, 0.07);
    }
    .hero { padding: 28px; }
    .hero h1 { margin: 0 0 8px; font-size: 28px; }
    .hero p { margin: 0; color: var(--muted); }
    .meta { margin-top: 14px; font-size: 13px; color: var(--muted); }
    .panel { margin-top: 24px; padding: 24px 28px; }
    .panel h2 { margin: 0 0 14px; font-size: 19px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid var(--border); }
    th { color: var(--muted); font-weight: 600; }
    code {
      background: var(--code-bg);
      color: var(--code-text);
      border-radius: 6px;
      padding: 2px 7px;
      font-size: 13px;
    }
    .button {
      display: inline-block;
      margin-top: 16px;
      padding: 9px 16px;
      border-radius: 8px;
      background: var(--accent);
      color: #fff;
      text-decoration: none;
      font-size: 14px;
    }
    pre {
      background: var(--code-bg);
      color: var(--code-text);
      border-radius: 10px;
      padding: 18px;
      overflow-x: auto;
      font-size: 13px;
      line-height: 1.5;
    }
  </style>
</head>
<body>
  <main>
    <section class="hero">
      <h1>{{ .Title }}</h1>
      <p>HTTP and WebSocket surface of the messaging backend. All REST routes expect a Bearer token; the socket accepts the token as a query parameter.</p>
      <p class="meta">Spec loaded at {{ .LoadedAt }}. Served from <code>/docs/openapi.yaml</code> on this origin.</p>
      <a class="button" href="/docs/openapi.yaml">Open Raw Spec</a>
    </section>
    <section class="panel">
      <h2>Endpoints</h2>
      <table>
        <tr><th>Method</th><th>Path</th><th>Purpose</th></tr>
        <tr><td>GET</td><td><code>/conversations?userId=</code></td><td>Conversations for a user, unread counts included</td></tr>
        <tr><td>POST</td><td><code>/conversations</code></td><td>Create or fetch the conversation for a participant set</td></tr>
        <tr><td>GET</td><td><code>/conversations/{id}</code></td><td>Single conversation</td></tr>
        <tr><td>GET</td><td><code>/conversations/{id}/messages</code></td><td>Message history, cursor paginated</td></tr>
        <tr><td>POST</td><td><code>/conversations/{id}/messages</code></td><td>Persist and broadcast a message</td></tr>
        <tr><td>PATCH</td><td><code>/conversations/{id}/read</code></td><td>Mark every incoming message read</td></tr>
        <tr><td>PATCH</td><td><code>/messages/{id}/status</code></td><td>Advance one message through sent, delivered, read</td></tr>
        <tr><td>GET</td><td><code>/ws/chat/{roomId}</code></td><td>Live events for one conversation</td></tr>
        <tr><td>GET</td><td><code>/health</code></td><td>Liveness plus dependency checks</td></tr>
        <tr><td>GET</td><td><code>/metrics</code></td><td>Prometheus metrics</td></tr>
      </table>
    </section>
    <section class="panel">
      <h2>OpenAPI YAML</h2>
      <pre>{{ .Spec }}</pre>
    </section>
  </main>
</body>
</html>
`

type docsPageData struct {
	Title    string
	LoadedAt string
	Spec     string
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	spec, err := loadOpenAPISpec()
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	pageData := docsPageData{
		Title:    "MessagingBack API Docs",
		LoadedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:     string(spec),
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(spec)
	})

	return nil
}

func loadOpenAPISpec() ([]byte, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("resolve source path")
	}

	specPath := filepath.Join(filepath.Dir(currentFile), "..", "..", "docs", "openapi.yaml")
	spec, err := os.ReadFile(specPath)
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
