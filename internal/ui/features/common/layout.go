// Package common provides shared page components for the console UI.
package common

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"

// Layout wraps a page body in the console HTML shell.
func Layout(title string, isDev bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s - sqlscribe</title>
<link rel="stylesheet" href="/static/app.css">
<script type="module" src="%s"></script>
</head>
<body>
<header class="topbar">
<span class="brand"><a href="/">sqlscribe</a></span>
<span class="muted">query review console</span>
</header>
<main>
`, templ.EscapeString(title), datastarCDN); err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		if isDev {
			if _, err := io.WriteString(w, `<div data-init="@get('/reload', {retryMaxCount: 1000, retryInterval: 100, retryMaxWaitMs: 200})"></div>
`); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</main>\n</body>\n</html>\n")
		return err
	})
}
