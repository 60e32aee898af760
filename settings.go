package bsoncodec

import "fmt"

const (
	DefaultTypeKey = "_tll_name"
	DefaultSeqKey  = "_tll_seq"
)

// Mode selects the envelope shape.
type Mode uint8

const (
	ModeFlat   Mode = iota // {seq: 100, type: name, fields...}
	ModeNested             // {seq: 100, name: {fields...}}
)

func (m Mode) String() string {
	switch m {
	case ModeFlat:
		return "flat"
	case ModeNested:
		return "nested"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode converts a compose value to a Mode. Empty selects ModeFlat.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "flat":
		return ModeFlat, nil
	case "nested":
		return ModeNested, nil
	}
	return ModeFlat, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Settings controls how message identity and sequence number are embedded in the
// outer document. An empty SeqKey disables the sequence key.
type Settings struct {
	TypeKey string
	SeqKey  string
	Mode    Mode
}

// DefaultSettings returns the flat envelope with the default keys.
func DefaultSettings() Settings {
	return Settings{TypeKey: DefaultTypeKey, SeqKey: DefaultSeqKey, Mode: ModeFlat}
}
