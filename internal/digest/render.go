// AngelaMos | 2026
// render.go

package digest

import (
	"embed"
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*
var templateFS embed.FS

type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type Renderer struct {
	subject *pongo2.Template
	html    *pongo2.Template
	text    *pongo2.Template
}

func NewRenderer() (*Renderer, error) {
	subject, err := loadTemplate("templates/subject.txt")
	if err != nil {
		return nil, err
	}
	html, err := loadTemplate("templates/body.html")
	if err != nil {
		return nil, err
	}
	text, err := loadTemplate("templates/body.txt")
	if err != nil {
		return nil, err
	}

	return &Renderer{subject: subject, html: html, text: text}, nil
}

func loadTemplate(name string) (*pongo2.Template, error) {
	raw, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}

	tpl, err := pongo2.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tpl, nil
}

func (r *Renderer) Render(stats *Stats) (*Rendered, error) {
	data := pongo2.Context{
		"generated_at":   stats.GeneratedAt,
		"since":          stats.Since,
		"active_users":   stats.ActiveUsers,
		"banned_users":   stats.BannedUsers,
		"new_reviews":    stats.NewReviews,
		"average_rating": stats.AverageRating,
		"recent_reviews": stats.RecentReviews,
	}

	subject, err := r.subject.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	html, err := r.html.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}
	text, err := r.text.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}

	return &Rendered{
		Subject: strings.TrimSpace(subject),
		HTML:    html,
		Text:    text,
	}, nil
}
