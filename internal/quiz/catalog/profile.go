package catalog

import "mindspace-backend/internal/quiz/recommendation"

// Profile describes the answer pattern behind a recommendation. It is informative
// only and has no influence on scoring.
type Profile struct {
	Flags  map[string]bool   `json:"flags"`
	Values map[string]string `json:"values"`
}

// Profile derives the configured flags and values from answers.
func (c *Catalog) Profile(answers recommendation.AnswerSet) Profile {
	p := Profile{
		Flags:  make(map[string]bool, len(c.doc.Profile.Flags)),
		Values: make(map[string]string, len(c.doc.Profile.Values)),
	}
	for _, f := range c.doc.Profile.Flags {
		selected, ok := answers[f.Question]
		hit := false
		if ok {
			for _, a := range f.Answers {
				if a == selected {
					hit = true
					break
				}
			}
		}
		// Several rules may share a name; any match sets the flag.
		p.Flags[f.Name] = p.Flags[f.Name] || hit
	}
	for _, v := range c.doc.Profile.Values {
		p.Values[v.Name] = answers[v.Question]
	}
	return p
}
