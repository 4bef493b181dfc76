package aiparams

import (
	"regexp"
	"strconv"
	"strings"
)

// Params is the structured generation-parameter record recovered from an
// image's embedded tag data. Missing fields stay absent: empty string for
// text, nil for numbers. This is a best-effort heuristic result, never an
// error.
type Params struct {
	Prompt         string   `json:"prompt,omitempty"`
	NegativePrompt string   `json:"negativePrompt,omitempty"`
	Model          string   `json:"model,omitempty"`
	ModelHash      string   `json:"modelHash,omitempty"`
	Sampler        string   `json:"sampler,omitempty"`
	Scheduler      string   `json:"scheduler,omitempty"`
	Size           string   `json:"size,omitempty"`
	Steps          *int64   `json:"steps,omitempty"`
	CfgScale       *float64 `json:"cfgScale,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
}

// IsEmpty reports whether no field was recovered at all.
func (p Params) IsEmpty() bool {
	return p == Params{}
}

// candidateFields are the tag names that can carry a parameter block, in
// priority order. "parameters" is the PNG text chunk written by common
// generation UIs; the rest are EXIF fields various tools abuse.
var candidateFields = []string{
	"parameters",
	"UserComment",
	"ImageDescription",
	"Software",
	"Artist",
	"Copyright",
	"Comment",
	"Description",
	"XPComment",
}

var (
	negativeMarker = regexp.MustCompile(`(?i)negative prompt\s*:`)
	stepsMarker    = regexp.MustCompile(`(?i)(?:^|[,\n])\s*steps\s*:`)
)

// rule extracts one labeled parameter from the key-value tail. Rules are
// evaluated in order; the first regexp match per field wins.
type rule struct {
	re     *regexp.Regexp
	assign func(value string, p *Params)
}

// labelPattern matches "Label: value" with the label at the start of the
// text or after a comma/newline, tolerating varying whitespace. The value
// runs to the next comma or newline.
func labelPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[,\n])\s*` + regexp.QuoteMeta(label) + `\s*:\s*([^,\n]*)`)
}

var rules = []rule{
	{labelPattern("Steps"), func(v string, p *Params) { p.Steps = parseInt(v) }},
	{labelPattern("Sampler"), func(v string, p *Params) { p.Sampler = v }},
	{labelPattern("Scheduler"), func(v string, p *Params) { p.Scheduler = v }},
	{labelPattern("CFG scale"), func(v string, p *Params) { p.CfgScale = parseFloat(v) }},
	{labelPattern("Seed"), func(v string, p *Params) { p.Seed = parseInt(v) }},
	{labelPattern("Size"), func(v string, p *Params) { p.Size = v }},
	{labelPattern("Model hash"), func(v string, p *Params) { p.ModelHash = v }},
	{labelPattern("Model"), func(v string, p *Params) { p.Model = v }},
}

// ParseText parses one free-text parameter block. The expected shape is an
// optional positive prompt, an optional "Negative prompt:" section and an
// optional "Steps:"-led comma-separated key-value tail. Anything that does
// not match is simply omitted from the result.
func ParseText(text string) Params {
	var p Params

	promptPart := text
	tail := ""
	negFound := false

	if loc := negativeMarker.FindStringIndex(text); loc != nil {
		negFound = true
		promptPart = text[:loc[0]]

		rest := text[loc[1]:]
		if stepsLoc := stepsMarker.FindStringIndex(rest); stepsLoc != nil {
			p.NegativePrompt = cleanFragment(rest[:stepsLoc[0]])
			tail = rest[stepsLoc[0]:]
		} else {
			p.NegativePrompt = cleanFragment(rest)
		}
	} else if stepsLoc := stepsMarker.FindStringIndex(text); stepsLoc != nil {
		promptPart = text[:stepsLoc[0]]
		tail = text[stepsLoc[0]:]
	}

	source := tail
	if source == "" {
		source = text
	}
	paramFound := false
	for _, r := range rules {
		m := r.re.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		r.assign(value, &p)
		paramFound = true
	}

	// A bare prompt with no markers at all is indistinguishable from
	// arbitrary text, so it only counts when something else matched.
	if prompt := cleanFragment(promptPart); prompt != "" && (negFound || paramFound) {
		p.Prompt = prompt
	}

	return p
}

// FromTags tries each candidate tag field in priority order and merges the
// results first-found-wins per key: a key recovered from an earlier field
// is never overwritten by a later one.
func FromTags(tags map[string]string) Params {
	var merged Params
	for _, field := range candidateFields {
		text, ok := tags[field]
		if !ok || text == "" {
			continue
		}
		merged = merge(merged, ParseText(text))
	}
	return merged
}

func merge(base, next Params) Params {
	if base.Prompt == "" {
		base.Prompt = next.Prompt
	}
	if base.NegativePrompt == "" {
		base.NegativePrompt = next.NegativePrompt
	}
	if base.Model == "" {
		base.Model = next.Model
	}
	if base.ModelHash == "" {
		base.ModelHash = next.ModelHash
	}
	if base.Sampler == "" {
		base.Sampler = next.Sampler
	}
	if base.Scheduler == "" {
		base.Scheduler = next.Scheduler
	}
	if base.Size == "" {
		base.Size = next.Size
	}
	if base.Steps == nil {
		base.Steps = next.Steps
	}
	if base.CfgScale == nil {
		base.CfgScale = next.CfgScale
	}
	if base.Seed == nil {
		base.Seed = next.Seed
	}
	return base
}

// cleanFragment trims whitespace and dangling separators from a prompt or
// negative-prompt fragment.
func cleanFragment(s string) string {
	return strings.Trim(s, " \t\r\n,")
}

func parseInt(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
