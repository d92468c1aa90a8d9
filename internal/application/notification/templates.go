package notification

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	s3infra "github.com/centry-onboarding/internal/infrastructure/s3"
)

//go:embed templates/*.txt templates/*.html
var embedded embed.FS

// Kind selects which verification email is sent.
type Kind int

const (
	KindWelcome Kind = iota
	KindResend
)

func (k Kind) String() string {
	switch k {
	case KindWelcome:
		return "welcome"
	case KindResend:
		return "resend"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var subjects = map[Kind]string{
	KindWelcome: "Verify Your Email",
	KindResend:  "New Verification Code",
}

var kinds = []Kind{KindWelcome, KindResend}

// TemplateSource fetches a raw template body by file name, e.g. "welcome.html".
type TemplateSource interface {
	Load(ctx context.Context, name string) (string, error)
}

// templateData is what every template renders against.
type templateData struct {
	Brand         string
	FirstName     string
	Code          string
	ExpiryMinutes int
}

// Templates holds the parsed text and HTML body for every Kind.
type Templates struct {
	text map[Kind]*texttemplate.Template
	html map[Kind]*htmltemplate.Template
}

// DefaultTemplates parses the templates compiled into the binary.
func DefaultTemplates() (*Templates, error) {
	return LoadTemplates(context.Background(), nil)
}

// LoadTemplates parses each template from src, falling back to the embedded
// copy when src is nil or has no object for that name.
func LoadTemplates(ctx context.Context, src TemplateSource) (*Templates, error) {
	t := &Templates{
		text: make(map[Kind]*texttemplate.Template, len(kinds)),
		html: make(map[Kind]*htmltemplate.Template, len(kinds)),
	}
	for _, k := range kinds {
		body, err := readTemplate(ctx, src, k.String()+".txt")
		if err != nil {
			return nil, err
		}
		tt, err := texttemplate.New(k.String()).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s.txt: %w", k, err)
		}
		t.text[k] = tt

		body, err = readTemplate(ctx, src, k.String()+".html")
		if err != nil {
			return nil, err
		}
		ht, err := htmltemplate.New(k.String()).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s.html: %w", k, err)
		}
		t.html[k] = ht
	}
	return t, nil
}

func readTemplate(ctx context.Context, src TemplateSource, name string) (string, error) {
	if src != nil {
		body, err := src.Load(ctx, name)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, s3infra.ErrTemplateMissing) {
			return "", fmt.Errorf("load template %s: %w", name, err)
		}
	}
	b, err := embedded.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("embedded template %s: %w", name, err)
	}
	return string(b), nil
}

// render produces the subject, text and HTML bodies for kind.
func (t *Templates) render(kind Kind, data templateData) (subject, text, html string, err error) {
	tt, ok := t.text[kind]
	if !ok {
		return "", "", "", fmt.Errorf("no template for %s", kind)
	}
	var tb, hb bytes.Buffer
	if err := tt.Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", kind, err)
	}
	if err := t.html[kind].Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", kind, err)
	}
	return subjects[kind], tb.String(), hb.String(), nil
}
