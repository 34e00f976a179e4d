package instruction

// Text is xsl:text: literal character data, optionally written without
// escaping.
type Text struct {
	Base
	value                 string
	disableOutputEscaping bool
}

// Value returns the cached text.
func (t *Text) Value() string { return t.value }

// DisableOutputEscaping reports whether the text is written raw.
func (t *Text) DisableOutputEscaping() bool { return t.disableOutputEscaping }

// Instantiate writes the cached text. Empty text writes nothing.
func (t *Text) Instantiate(rc *RunContext) error {
	if t.value == "" {
		return nil
	}
	rc.Out.Text(t.value, !t.disableOutputEscaping)
	return nil
}

func setupText(el *Element) (Instruction, error) {
	return &Text{
		Base:                  NewBase(el),
		value:                 el.Text(),
		disableOutputEscaping: el.Attrs.Bool("disable-output-escaping"),
	}, nil
}

// textRun is character data written directly in a template body.
type textRun struct {
	Base
	value string
}

func (t *textRun) Instantiate(rc *RunContext) error {
	rc.Out.Text(t.value, true)
	return nil
}
