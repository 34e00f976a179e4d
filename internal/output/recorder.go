package output

// Recorder is a Context that keeps every event in an append-only slice. It
// is the reference sink: serializers can be fed from it with Replay.
type Recorder struct {
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{events: make([]Event, 0, 16)}
}

// Text records character data. Empty values are not recorded.
func (r *Recorder) Text(value string, escape bool) {
	if value == "" {
		return
	}
	r.events = append(r.events, Event{Kind: EventText, Value: value, Escape: escape})
}

func (r *Recorder) StartElement(name string) {
	r.events = append(r.events, Event{Kind: EventStartElement, Name: name})
}

func (r *Recorder) Attribute(name, value string) {
	r.events = append(r.events, Event{Kind: EventAttribute, Name: name, Value: value})
}

func (r *Recorder) EndElement(name string) {
	r.events = append(r.events, Event{Kind: EventEndElement, Name: name})
}

func (r *Recorder) Comment(value string) {
	r.events = append(r.events, Event{Kind: EventComment, Value: value})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int { return len(r.events) }

// Replay feeds the recorded events into dst in order.
func (r *Recorder) Replay(dst Context) {
	for _, e := range r.events {
		e.Apply(dst)
	}
}
