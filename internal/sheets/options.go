package sheets

// Tab describes one tab group of a sheet
type Tab struct {
	NavSelector     string `json:"nav_selector" yaml:"nav_selector"`
	ContentSelector string `json:"content_selector" yaml:"content_selector"`
	Initial         string `json:"initial" yaml:"initial"`
}

// Options is the presentation configuration of a sheet
type Options struct {
	Classes  []string `json:"classes"`
	Template string   `json:"template"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Tabs     []Tab    `json:"tabs,omitempty"`
}

// MergeOptions returns base with every non-zero field of override applied.
// Slices are replaced, not appended.
func MergeOptions(base, override Options) Options {
	merged := base.clone()
	if override.Classes != nil {
		merged.Classes = append([]string(nil), override.Classes...)
	}
	if override.Template != "" {
		merged.Template = override.Template
	}
	if override.Width != 0 {
		merged.Width = override.Width
	}
	if override.Height != 0 {
		merged.Height = override.Height
	}
	if override.Tabs != nil {
		merged.Tabs = append([]Tab(nil), override.Tabs...)
	}
	return merged
}

func (o Options) clone() Options {
	c := o
	c.Classes = append([]string(nil), o.Classes...)
	c.Tabs = append([]Tab(nil), o.Tabs...)
	return c
}

// HasClass reports whether class is one of the sheet's CSS classes
func (o Options) HasClass(class string) bool {
	for _, c := range o.Classes {
		if c == class {
			return true
		}
	}
	return false
}
