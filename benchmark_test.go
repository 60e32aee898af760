package bsoncodec

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func benchmarkCodec(b *testing.B, backend Backend, mode Mode) (*Codec, Msg) {
	s := DefaultSettings()
	s.Mode = mode
	c, err := New(newTestScheme(), WithBackend(backend), WithSettings(s))
	if err != nil {
		b.Fatal(err)
	}
	doc, err := bson.Marshal(envelope(s, "All", 1, allFields()))
	if err != nil {
		b.Fatal(err)
	}
	msg, err := c.Decode(doc)
	if err != nil {
		b.Fatal(err)
	}
	msg.Data = append([]byte(nil), msg.Data...)
	return c, msg
}

func BenchmarkEncodeNative(b *testing.B) {
	c, msg := benchmarkCodec(b, BackendNative, ModeFlat)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Encode(msg)
	}
}

func BenchmarkEncodeCore(b *testing.B) {
	c, msg := benchmarkCodec(b, BackendCore, ModeFlat)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Encode(msg)
	}
}

func BenchmarkEncodeNested(b *testing.B) {
	c, msg := benchmarkCodec(b, BackendNative, ModeNested)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Encode(msg)
	}
}

func BenchmarkDecode(b *testing.B) {
	c, msg := benchmarkCodec(b, BackendNative, ModeFlat)
	doc, _ := c.Encode(msg)
	doc = append([]byte(nil), doc...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Decode(doc)
	}
}

// Baseline: the library marshaller on an equivalent document.
func BenchmarkLibraryMarshal(b *testing.B) {
	doc := envelope(DefaultSettings(), "All", 1, allFields())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = bson.Marshal(doc)
	}
}

func BenchmarkMarshalPooled(b *testing.B) {
	_, msg := benchmarkCodec(b, BackendNative, ModeFlat)
	m := newTestScheme().Lookup("All")
	s := DefaultSettings()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Marshal(s, m, 1, msg.Data)
	}
}
