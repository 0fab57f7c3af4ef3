// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds the page and the "dashboard" partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds stylesheets served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
