package bsoncodec

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.uber.org/zap"
)

// Msg is a wire record with its envelope: message id and sequence number.
type Msg struct {
	MsgID int32
	Seq   int64
	Data  []byte
}

// Option configures a Codec.
type Option func(*Codec)

// WithSettings replaces the default envelope settings.
func WithSettings(s Settings) Option {
	return func(c *Codec) { c.settings = s }
}

// WithBackend selects the document builder used for encoding.
func WithBackend(b Backend) Option {
	return func(c *Codec) { c.backend = b }
}

// WithLogger sets the logger for encode and decode failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Codec) { c.log = l }
}

// Codec converts between wire records of one scheme and self-describing documents.
// It owns reusable encode and decode buffers and must not be used concurrently.
type Codec struct {
	scheme   *Scheme
	settings Settings
	backend  Backend
	log      *zap.Logger

	enc *Encoder
	dec Buffer
	it  Iter
}

// New creates a Codec for scheme.
func New(scheme *Scheme, opts ...Option) (*Codec, error) {
	if scheme == nil {
		return nil, ErrNoScheme
	}
	c := &Codec{scheme: scheme, settings: DefaultSettings(), backend: BackendNative}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	switch c.settings.Mode {
	case ModeFlat, ModeNested:
	default:
		return nil, ErrInvalidMode
	}
	enc, err := NewEncoder(c.backend)
	if err != nil {
		return nil, err
	}
	c.enc = enc
	return c, nil
}

// Settings returns the envelope settings of the codec.
func (c *Codec) Settings() Settings { return c.settings }

// Scheme returns the scheme of the codec.
func (c *Codec) Scheme() *Scheme { return c.scheme }

// Encode converts msg into a document. The result is valid until the next Encode.
func (c *Codec) Encode(msg Msg) ([]byte, error) {
	m := c.scheme.LookupID(msg.MsgID)
	if m == nil {
		c.log.Debug("message not found", zap.Int32("msgid", msg.MsgID))
		return nil, ErrUnknownMessage
	}
	out, err := c.enc.Encode(&c.settings, m, msg.Seq, msg.Data)
	if err != nil {
		c.logFailure("encode failed", m, err)
		return nil, err
	}
	return out, nil
}

// Decode converts a document into a record. Data of the result aliases the codec's decode
// buffer and is valid until the next Decode.
func (c *Codec) Decode(doc []byte) (Msg, error) {
	if err := c.it.Init(doc); err != nil {
		c.log.Debug("failed to bind document", zap.Error(err))
		return Msg{}, err
	}
	var (
		msg Msg
		m   *Message
		err error
	)
	if c.settings.Mode == ModeNested {
		m, err = c.decodeNested(&msg)
	} else {
		m, err = c.decodeFlat(&msg)
	}
	if err != nil {
		c.logFailure("decode failed", m, err)
		return Msg{}, err
	}
	msg.MsgID = m.MsgID
	msg.Data = c.dec.Bytes()
	return msg, nil
}

// decodeFlat resolves the type and sequence keys at the top level, then decodes the
// remaining keys as fields. The iterator is rewound if a field key came before the
// metadata was complete.
func (c *Codec) decodeFlat(msg *Msg) (*Message, error) {
	s := &c.settings
	var m *Message
	reset, seq := false, s.SeqKey == ""
	for c.it.Next() {
		key := c.it.Key()
		switch {
		case key == s.TypeKey:
			if m != nil {
				return nil, failf(PhaseDecode, KindMissingMetadata, "Duplicate key %s", key)
			}
			if c.it.Type() != bsontype.String {
				return nil, failf(PhaseDecode, KindMissingMetadata, "Non-string type key %s: %s", key, c.it.Type())
			}
			name := c.it.Value().StringValue()
			if m = c.scheme.Lookup(name); m == nil {
				return nil, failf(PhaseDecode, KindMissingMetadata, "Message '%s' not found", name)
			}
		case s.SeqKey != "" && key == s.SeqKey:
			v, ok := c.it.Int()
			if !ok {
				return nil, failf(PhaseDecode, KindMissingMetadata, "Non-integer seq key %s: %s", key, c.it.Type())
			}
			msg.Seq, seq = v, true
		default:
			reset = true
			continue
		}
		if m != nil && seq {
			break
		}
	}
	if err := c.it.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, failf(PhaseDecode, KindMissingMetadata, "Type key %s not found", s.TypeKey)
	}
	if reset {
		c.it.Reset()
	}
	return m, Decode(&c.it, m, &c.dec, s)
}

// decodeNested takes the first key naming a known message as the payload.
func (c *Codec) decodeNested(msg *Msg) (*Message, error) {
	s := &c.settings
	var (
		m       *Message
		payload Iter
	)
	seq := s.SeqKey == ""
	for c.it.Next() {
		key := c.it.Key()
		if s.SeqKey != "" && key == s.SeqKey {
			v, ok := c.it.Int()
			if !ok {
				return nil, failf(PhaseDecode, KindMissingMetadata, "Non-integer seq key %s: %s", key, c.it.Type())
			}
			msg.Seq, seq = v, true
		} else if m == nil {
			found := c.scheme.Lookup(key)
			if found == nil || found.MsgID == 0 {
				continue
			}
			if c.it.Type() != bsontype.EmbeddedDocument {
				return nil, failf(PhaseDecode, KindTypeMismatch, "Message %s body is not a document: %s", key, c.it.Type())
			}
			if err := c.it.Child(&payload); err != nil {
				return nil, err
			}
			m = found
		}
		if m != nil && seq {
			break
		}
	}
	if err := c.it.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, failf(PhaseDecode, KindMissingMetadata, "No known message key found")
	}
	return m, Decode(&payload, m, &c.dec, nil)
}

func (c *Codec) logFailure(msg string, m *Message, err error) {
	fields := []zap.Field{zap.Error(err)}
	if m != nil {
		fields = append(fields, zap.String("message", m.Name))
	}
	var e *Error
	if errors.As(err, &e) {
		fields = append(fields, zap.String("path", e.Path()))
	}
	c.log.Debug(msg, fields...)
}
