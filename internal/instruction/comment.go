package instruction

import (
	xerrors "github.com/conneroisu/xslate/internal/errors"
)

// Comment is xsl:comment.
type Comment struct {
	Base
	value string
}

func (c *Comment) Instantiate(rc *RunContext) error {
	rc.Out.Comment(c.value)
	return nil
}

func setupComment(el *Element) (Instruction, error) {
	return &Comment{Base: NewBase(el), value: el.Text()}, nil
}

// Message is xsl:message. The text goes to the run's logger rather than the
// result; terminate="yes" ends the run with an error.
type Message struct {
	Base
	value     string
	terminate bool
}

func (m *Message) Instantiate(rc *RunContext) error {
	pos := m.Pos()
	if !m.terminate {
		rc.Logger.Warn(rc.Ctx, nil, m.value, "instruction", m.Name(), "pos", pos.String())
		return nil
	}

	err := xerrors.NewRuntimeError(xerrors.ErrCodeMessageTerminate, "terminated by message: "+m.value).
		WithInstruction(m.Name()).
		WithLocation(pos.File, pos.Line, pos.Column)
	rc.Logger.Error(rc.Ctx, err, m.value, "instruction", m.Name(), "pos", pos.String())
	return err
}

func setupMessage(el *Element) (Instruction, error) {
	return &Message{
		Base:      NewBase(el),
		value:     el.Text(),
		terminate: el.Attrs.Bool("terminate"),
	}, nil
}
