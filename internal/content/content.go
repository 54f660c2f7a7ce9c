// Package content holds the static sections of the public page. The text
// lives in an embedded YAML document; long-form fields are Markdown.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var siteYAML []byte

// Raw HTML in Markdown input is escaped; WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Markdown is a YAML string field rendered to HTML when decoded.
type Markdown struct {
	Source string
	HTML   template.HTML
}

func (m *Markdown) UnmarshalYAML(node *yaml.Node) error {
	var src string
	if err := node.Decode(&src); err != nil {
		return err
	}
	html, err := Render(src)
	if err != nil {
		return err
	}
	m.Source = src
	m.HTML = html
	return nil
}

// Render converts Markdown to HTML.
func Render(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(strings.TrimSpace(src)), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

type Card struct {
	Title string   `yaml:"title"`
	URL   string   `yaml:"url"`
	Text  Markdown `yaml:"text"`
}

type Hero struct {
	Badge     string   `yaml:"badge"`
	Headline  string   `yaml:"headline"`
	Highlight string   `yaml:"highlight"`
	Trailer   string   `yaml:"trailer"`
	Tagline   Markdown `yaml:"tagline"`
	CTA       string   `yaml:"cta"`
	Stats     []string `yaml:"stats"`
}

type About struct {
	Badge   string   `yaml:"badge"`
	Title   string   `yaml:"title"`
	Intro   Markdown `yaml:"intro"`
	Pillars []Card   `yaml:"pillars"`
	Quote   Card     `yaml:"quote"`
}

type Story struct {
	Title   string   `yaml:"title"`
	Intro   Markdown `yaml:"intro"`
	Guide   Card     `yaml:"guide"`
	Mission Card     `yaml:"mission"`
}

type Area struct {
	Title       string   `yaml:"title"`
	Accent      string   `yaml:"accent"`
	Star        string   `yaml:"star"`
	Image       string   `yaml:"image"`
	Description string   `yaml:"description"`
	Objectives  []string `yaml:"objectives"`
}

type Areas struct {
	Badge   string   `yaml:"badge"`
	Title   string   `yaml:"title"`
	Intro   Markdown `yaml:"intro"`
	Items   []Area   `yaml:"items"`
	Closing Card     `yaml:"closing"`
}

type Game struct {
	Badge           string `yaml:"badge"`
	Title           string `yaml:"title"`
	Intro           string `yaml:"intro"`
	FrameTitle      string `yaml:"frame_title"`
	FrameURL        string `yaml:"frame_url"`
	FullscreenLabel string `yaml:"fullscreen_label"`
}

// Member is a team member's full name.
type Member string

// Initials returns the first letters of the first two words of the name.
func (m Member) Initials() string {
	return Initials(string(m))
}

// Lead is the first two words of the name.
func (m Member) Lead() string {
	words := strings.Fields(string(m))
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

// Rest is every word after the first two.
func (m Member) Rest() string {
	words := strings.Fields(string(m))
	if len(words) <= 2 {
		return ""
	}
	return strings.Join(words[2:], " ")
}

type Team struct {
	Badge   string   `yaml:"badge"`
	Title   string   `yaml:"title"`
	Class   string   `yaml:"class"`
	Members []Member `yaml:"members"`
}

type Footer struct {
	Title      string   `yaml:"title"`
	Text       Markdown `yaml:"text"`
	School     Card     `yaml:"school"`
	Instructor Card     `yaml:"instructor"`
	Copyright  string   `yaml:"copyright"`
}

type Site struct {
	Title  string `yaml:"title"`
	Hero   Hero   `yaml:"hero"`
	About  About  `yaml:"about"`
	Story  Story  `yaml:"story"`
	Areas  Areas  `yaml:"areas"`
	Game   Game   `yaml:"game"`
	Team   Team   `yaml:"team"`
	Footer Footer `yaml:"footer"`
}

// Load parses the embedded site document.
func Load() (*Site, error) {
	return Parse(siteYAML)
}

func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("failed to parse site content: %w", err)
	}
	if err := site.validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Site) validate() error {
	if s.Title == "" {
		return errors.New("site content: title is required")
	}
	u, err := url.Parse(s.Game.FrameURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("site content: game frame_url %q must be an absolute https URL", s.Game.FrameURL)
	}
	for i, a := range s.Areas.Items {
		if a.Title == "" || len(a.Objectives) == 0 {
			return fmt.Errorf("site content: area %d needs a title and objectives", i)
		}
	}
	return nil
}

// FrameOrigin is the scheme and host of the game frame, for the page's
// content security policy.
func (s *Site) FrameOrigin() string {
	u, err := url.Parse(s.Game.FrameURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Initials returns the first letter of each of the first two words of name.
func Initials(name string) string {
	var b strings.Builder
	for i, w := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(w)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
