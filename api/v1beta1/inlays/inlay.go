package inlays

const (
	// DefaultName is the name given to newly added inlays.
	DefaultName = "New inlay"
	// BlankURL is navigated to in place of an empty URL.
	BlankURL = "about:blank"
)

// Inlay is the persisted configuration of a single embedded browser overlay.
type Inlay struct {
	// ID uniquely identifies the inlay. It is assigned once and never changed.
	ID string `json:"id" jsonschema:"title=ID,minLength=1"`
	// Name is the display name shown in the settings panel.
	Name string `json:"name" jsonschema:"title=Name,maxLength=100"`
	// URL is the address the inlay's browser navigates to.
	URL string `json:"url" jsonschema:"title=URL,maxLength=1000"`
	// Locked prevents the inlay from being moved or resized.
	Locked bool `json:"locked,omitempty" jsonschema:"title=Locked"`
	// ClickThrough stops the inlay from intercepting mouse events. It
	// implies Locked without overwriting it.
	ClickThrough bool `json:"clickThrough,omitempty" jsonschema:"title=Click Through"`
}

// New returns an inlay with the given ID and default field values.
func New(id string) *Inlay {
	return &Inlay{
		ID:   id,
		Name: DefaultName,
		URL:  BlankURL,
	}
}

// EffectiveLocked reports whether the inlay behaves as locked.
func (i *Inlay) EffectiveLocked() bool {
	return i.Locked || i.ClickThrough
}

// NormalizeURL replaces an empty URL with [BlankURL]. It reports whether
// the URL was changed.
func (i *Inlay) NormalizeURL() bool {
	if i.URL != "" {
		return false
	}

	i.URL = BlankURL

	return true
}

// Clone returns a copy of the inlay.
func (i *Inlay) Clone() *Inlay {
	c := *i

	return &c
}
