package stringtable

// State is the resolution state of an Entry.
type State int

const (
	Pending State = iota
	Resolved
)

// Resolution records which action resolved an Entry.
type Resolution int

const (
	Unresolved Resolution = iota
	// AcceptedText means the operator supplied their own translation.
	AcceptedText
	// AcceptedAuto means the machine translation was kept.
	AcceptedAuto
	// Rejected means the original text was written back untranslated.
	Rejected
)

func (r Resolution) String() string {
	switch r {
	case AcceptedText:
		return "text"
	case AcceptedAuto:
		return "auto"
	case Rejected:
		return "rejected"
	default:
		return "unresolved"
	}
}

// Entry pairs one translatable entry of a Document with a proposed
// translation. Resolving it writes the chosen text into the document.
//
// An Entry may be resolved more than once; each call overwrites the
// document text again and the last action wins.
type Entry struct {
	doc        *Document
	index      int
	id         string
	original   string
	proposed   string
	failed     bool
	resolution Resolution
}

// NewEntry wraps entry i of the document with a proposed translation.
func (d *Document) NewEntry(i int, proposed string) (*Entry, error) {
	original, err := d.Text(i)
	if err != nil {
		return nil, err
	}
	return &Entry{
		doc:      d,
		index:    i,
		id:       d.ID(i),
		original: original,
		proposed: proposed,
	}, nil
}

// NewFailedEntry wraps entry i of the document after its translation failed.
// diagnostic stands in for the proposed translation.
func (d *Document) NewFailedEntry(i int, diagnostic string) (*Entry, error) {
	e, err := d.NewEntry(i, diagnostic)
	if err != nil {
		return nil, err
	}
	e.failed = true
	return e, nil
}

// Index is the entry's position among the document's translatable entries.
func (e *Entry) Index() int { return e.index }

// ID is the entry's id attribute.
func (e *Entry) ID() string { return e.id }

// OriginalText is the text as it was when the Entry was created.
func (e *Entry) OriginalText() string { return e.original }

// ProposedText is the machine translation offered for this entry.
func (e *Entry) ProposedText() string { return e.proposed }

// Failed reports whether the machine translation for this entry failed.
func (e *Entry) Failed() bool { return e.failed }

func (e *Entry) State() State {
	if e.resolution == Unresolved {
		return Pending
	}
	return Resolved
}

func (e *Entry) Resolution() Resolution { return e.resolution }

// AcceptText writes text into the document.
func (e *Entry) AcceptText(text string) {
	e.apply(text, AcceptedText)
}

// AcceptAuto writes the proposed translation into the document.
func (e *Entry) AcceptAuto() {
	e.apply(e.proposed, AcceptedAuto)
}

// Reject writes the original text back, marking it as intentionally untranslated.
func (e *Entry) Reject() {
	e.apply(e.original, Rejected)
}

func (e *Entry) apply(text string, r Resolution) {
	// index was validated by NewEntry and the entry set never shrinks.
	_ = e.doc.SetText(e.index, text)
	e.resolution = r
}
