package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mindspace-backend/internal/quiz/recommendation"
)

//go:embed default.yaml
var defaultDocument []byte

// FallbackKey names the presentation used for results without their own entry.
const FallbackKey = "fallback"

// ErrInvalidCatalog indicates a catalog document that cannot drive scoring.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Answer is one selectable option of a question.
type Answer struct {
	Key     string         `yaml:"key" json:"key"`
	Label   string         `yaml:"label,omitempty" json:"label,omitempty"`
	Weights map[string]int `yaml:"weights" json:"-"`
}

// Question is one wizard step.
type Question struct {
	ID      string   `yaml:"id" json:"id"`
	Prompt  string   `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Answers []Answer `yaml:"answers" json:"answers"`
}

// Service is the descriptive metadata of a category. It never affects scoring.
type Service struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Icon        string   `yaml:"icon" json:"icon"`
	Benefits    []string `yaml:"benefits" json:"benefits"`
	IdealFor    []string `yaml:"idealFor" json:"idealFor"`
}

// Presentation holds the texts shown for a recommendation outcome.
type Presentation struct {
	Title       string `yaml:"title" json:"title"`
	Icon        string `yaml:"icon" json:"icon"`
	Explanation string `yaml:"explanation,omitempty" json:"explanation,omitempty"`
}

// ConfidenceDisplay maps a confidence level to its bar width and label.
type ConfidenceDisplay struct {
	Percentage int    `yaml:"percentage" json:"percentage"`
	Label      string `yaml:"label" json:"label"`
}

// ProfileFlag is set when the answer to Question is one of Answers.
type ProfileFlag struct {
	Name     string   `yaml:"name"`
	Question string   `yaml:"question"`
	Answers  []string `yaml:"answers"`
}

// ProfileValue copies the raw answer of Question into the profile.
type ProfileValue struct {
	Name     string `yaml:"name"`
	Question string `yaml:"question"`
}

type profileRules struct {
	Flags  []ProfileFlag  `yaml:"flags"`
	Values []ProfileValue `yaml:"values"`
}

type document struct {
	Questions  []Question                   `yaml:"questions"`
	Services   []Service                    `yaml:"services"`
	Results    map[string]Presentation      `yaml:"results"`
	Confidence map[string]ConfidenceDisplay `yaml:"confidence"`
	Profile    profileRules                 `yaml:"profile"`
}

// Catalog is the immutable quiz configuration.
type Catalog struct {
	doc     document
	version string
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultDocument))
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}
	c := &Catalog{doc: doc, version: versionOf(raw)}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func versionOf(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}

// Validate checks the structural invariants scoring relies on.
func (c *Catalog) Validate() error {
	if len(c.doc.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidCatalog)
	}
	services := make(map[string]bool, len(c.doc.Services))
	for _, s := range c.doc.Services {
		id := s.ID
		if err := checkIdentifier("service id", id); err != nil {
			return err
		}
		if id == string(recommendation.CategoryBoth) {
			return fmt.Errorf("%w: service id %q is reserved", ErrInvalidCatalog, id)
		}
		if services[id] {
			return fmt.Errorf("%w: duplicate service %q", ErrInvalidCatalog, id)
		}
		services[id] = true
	}

	questions := make(map[string]map[string]bool, len(c.doc.Questions))
	for _, q := range c.doc.Questions {
		id := q.ID
		if err := checkIdentifier("question id", id); err != nil {
			return err
		}
		if _, dup := questions[id]; dup {
			return fmt.Errorf("%w: duplicate question %q", ErrInvalidCatalog, id)
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: question %q has no answers", ErrInvalidCatalog, id)
		}
		keys := make(map[string]bool, len(q.Answers))
		for _, a := range q.Answers {
			key := a.Key
			if err := checkIdentifier(fmt.Sprintf("question %q answer key", id), key); err != nil {
				return err
			}
			if keys[key] {
				return fmt.Errorf("%w: question %q repeats answer %q", ErrInvalidCatalog, id, key)
			}
			keys[key] = true
			for cat, w := range a.Weights {
				if w < 0 {
					return fmt.Errorf("%w: %s/%s weight for %q is negative", ErrInvalidCatalog, id, key, cat)
				}
				if !services[cat] {
					return fmt.Errorf("%w: %s/%s references undescribed category %q", ErrInvalidCatalog, id, key, cat)
				}
			}
		}
		questions[id] = keys
	}

	for _, f := range c.doc.Profile.Flags {
		if _, ok := questions[f.Question]; !ok {
			return fmt.Errorf("%w: profile flag %q references unknown question %q", ErrInvalidCatalog, f.Name, f.Question)
		}
	}
	for _, v := range c.doc.Profile.Values {
		if _, ok := questions[v.Question]; !ok {
			return fmt.Errorf("%w: profile value %q references unknown question %q", ErrInvalidCatalog, v.Name, v.Question)
		}
	}
	return nil
}

// checkIdentifier rejects empty identifiers and ones with surrounding
// whitespace, which answer keys submitted by clients could never match.
func checkIdentifier(what, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidCatalog, what)
	}
	if strings.TrimSpace(id) != id {
		return fmt.Errorf("%w: %s %q has surrounding whitespace", ErrInvalidCatalog, what, id)
	}
	return nil
}

// Version identifies the catalog content.
func (c *Catalog) Version() string {
	return c.version
}

// Questions returns the scoring definitions in declaration order.
func (c *Catalog) Questions() []recommendation.QuestionDefinition {
	out := make([]recommendation.QuestionDefinition, 0, len(c.doc.Questions))
	for _, q := range c.doc.Questions {
		def := recommendation.QuestionDefinition{
			ID:      q.ID,
			Weights: make(map[string]recommendation.WeightVector, len(q.Answers)),
		}
		for _, a := range q.Answers {
			vec := make(recommendation.WeightVector, len(a.Weights))
			for cat, w := range a.Weights {
				vec[recommendation.Category(cat)] = w
			}
			def.Weights[a.Key] = vec
		}
		out = append(out, def)
	}
	return out
}

// Steps returns the wizard-facing questions in declaration order.
func (c *Catalog) Steps() []Question {
	out := make([]Question, 0, len(c.doc.Questions))
	for _, q := range c.doc.Questions {
		cp := q
		cp.Answers = make([]Answer, len(q.Answers))
		copy(cp.Answers, q.Answers)
		out = append(out, cp)
	}
	return out
}

// Services returns every described service in declaration order.
func (c *Catalog) Services() []Service {
	out := make([]Service, len(c.doc.Services))
	copy(out, c.doc.Services)
	return out
}

// Service looks up the metadata of a category.
func (c *Catalog) Service(cat recommendation.Category) (Service, bool) {
	for _, s := range c.doc.Services {
		if s.ID == string(cat) {
			return s, true
		}
	}
	return Service{}, false
}

// Presentation returns the texts for an outcome, falling back to the generic entry.
func (c *Catalog) Presentation(cat recommendation.Category) Presentation {
	if p, ok := c.doc.Results[string(cat)]; ok {
		return p
	}
	return c.doc.Results[FallbackKey]
}

// ConfidenceDisplay returns the bar width and label of a confidence level.
// Unknown levels render like moderate confidence.
func (c *Catalog) ConfidenceDisplay(conf recommendation.Confidence) ConfidenceDisplay {
	if d, ok := c.doc.Confidence[string(conf)]; ok {
		return d
	}
	if d, ok := c.doc.Confidence[string(recommendation.ConfidenceModerate)]; ok {
		return d
	}
	return ConfidenceDisplay{Percentage: 50}
}

// CheckComplete reports whether answers select one known answer for every question
// and nothing else.
func (c *Catalog) CheckComplete(answers recommendation.AnswerSet) error {
	var problems []string
	known := make(map[string]bool, len(c.doc.Questions))
	for _, q := range c.doc.Questions {
		known[q.ID] = true
		key, ok := answers[q.ID]
		if !ok {
			problems = append(problems, q.ID+": missing answer")
			continue
		}
		if !hasAnswer(q, key) {
			problems = append(problems, fmt.Sprintf("%s: unknown answer %q", q.ID, key))
		}
	}
	extra := make([]string, 0)
	for id := range answers {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		problems = append(problems, id+": unknown question")
	}
	if len(problems) > 0 {
		return &IncompleteError{Problems: problems}
	}
	return nil
}

func hasAnswer(q Question, key string) bool {
	for _, a := range q.Answers {
		if a.Key == key {
			return true
		}
	}
	return false
}

// IncompleteError lists why an answer set cannot be submitted.
type IncompleteError struct {
	Problems []string
}

func (e *IncompleteError) Error() string {
	return "incomplete answers: " + strings.Join(e.Problems, "; ")
}
