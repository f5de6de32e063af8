package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var layout = htmltemplate.Must(htmltemplate.New("layout").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.5;">
{{range .Paragraphs}}<p>{{range $i, $line := .}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
{{end}}{{if .ActionURL}}<p><a href="{{.ActionURL}}">{{.ActionLabel}}</a></p>
{{end}}</body>
</html>
`))

// RenderInput is the state a notification is rendered from.
type RenderInput struct {
	Kind        domain.EmailKind
	Restaurant  domain.Restaurant
	Reservation domain.Reservation
	Settings    domain.Settings
}

// Rendered is a rendered notification.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// templateData is what the kind templates see.
type templateData struct {
	GuestName         string
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	RestaurantName    string
	RestaurantAddress string
	RestaurantPhone   string
	PartySize         int
	Guests            string
	Date              string
	Time              string
	Status            string
	Notes             string
	ReviewURL         string
}

// Renderer renders notification templates. It is safe for concurrent use.
type Renderer struct {
	templates map[domain.EmailKind]*template.Template
}

// NewRenderer parses the embedded templates, one per email kind.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[domain.EmailKind]*template.Template, len(domain.EmailKinds)),
	}
	for _, kind := range domain.EmailKinds {
		name := string(kind) + ".tmpl"
		t, err := template.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		for _, block := range []string{"subject", "body"} {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s: missing %q block", name, block)
			}
		}
		r.templates[kind] = t
	}
	return r, nil
}

// Render produces the subject, text and HTML bodies for in.
func (r *Renderer) Render(in RenderInput) (Rendered, error) {
	t, ok := r.templates[in.Kind]
	if !ok {
		return Rendered{}, fmt.Errorf("render: unknown email kind %q", in.Kind)
	}
	data := newTemplateData(in)

	var subject, body bytes.Buffer
	if err := t.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", in.Kind, err)
	}
	if err := t.ExecuteTemplate(&body, "body", data); err != nil {
		return Rendered{}, fmt.Errorf("render %s body: %w", in.Kind, err)
	}

	out := Rendered{
		Subject: strings.Join(strings.Fields(subject.String()), " "),
		Text:    body.String(),
	}

	page := struct {
		Paragraphs  [][]string
		ActionURL   string
		ActionLabel string
	}{Paragraphs: paragraphs(out.Text)}
	if in.Kind == domain.EmailReviewRequest && in.Settings.ReviewURL != "" {
		page.ActionURL = in.Settings.ReviewURL
		page.ActionLabel = "Leave a review"
	}
	var html bytes.Buffer
	if err := layout.Execute(&html, page); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", in.Kind, err)
	}
	out.HTML = html.String()
	return out, nil
}

// newTemplateData builds the template view of in. The guest name is
// title-cased without lowering the rest, so "mcKay" stays "McKay".
func newTemplateData(in RenderInput) templateData {
	res := in.Reservation
	local := res.StartsAt.In(in.Restaurant.Location())
	guests := "guests"
	if res.PartySize == 1 {
		guests = "guest"
	}
	return templateData{
		GuestName:         cases.Title(language.Und, cases.NoLower).String(res.CustomerName),
		CustomerName:      res.CustomerName,
		CustomerEmail:     res.CustomerEmail,
		CustomerPhone:     res.CustomerPhone,
		RestaurantName:    in.Restaurant.Name,
		RestaurantAddress: in.Restaurant.Address,
		RestaurantPhone:   in.Restaurant.Phone,
		PartySize:         res.PartySize,
		Guests:            guests,
		Date:              local.Format("Monday, 2 January 2006"),
		Time:              local.Format("15:04"),
		Status:            string(res.Status),
		Notes:             res.Notes,
		ReviewURL:         in.Settings.ReviewURL,
	}
}

// paragraphs splits text on blank lines, then each paragraph into lines.
func paragraphs(text string) [][]string {
	var out [][]string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, strings.Split(p, "\n"))
	}
	return out
}
