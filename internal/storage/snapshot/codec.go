package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/yndnr/rostervault/internal/core/domain"
	"github.com/yndnr/rostervault/internal/storage/memory"
	"github.com/yndnr/rostervault/pkg/crypto/adaptive"
)

// Compression levels accepted by Compress, matching the reference zstd CLI.
const (
	MinCompressionLevel     = 1
	MaxCompressionLevel     = 22
	DefaultCompressionLevel = 3

	// maxDecodedSize bounds the memory a single decompression may use.
	maxDecodedSize = 1 << 30
)

// document is the wire shape of a serialized snapshot. Pointers let
// Deserialize tell a missing collection from an empty one.
type document struct {
	Engagements *[]domain.Engagement `json:"engagements"`
	Instructors *[]string            `json:"instructors"`
	Hosts       *[]string            `json:"hosts"`
}

// Serialize encodes s as JSON. Elements are sorted so equal snapshots
// serialize to identical bytes.
func Serialize(s *Snapshot) ([]byte, error) {
	records := make([]domain.Engagement, 0, len(s.Records))
	for _, r := range s.Records {
		records = append(records, r)
	}
	slices.SortFunc(records, func(a, b domain.Engagement) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	instructors := memory.SortedKeys(s.Instructors)
	hosts := memory.SortedKeys(s.Hosts)

	data, err := json.Marshal(document{
		Engagements: &records,
		Instructors: &instructors,
		Hosts:       &hosts,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: serialize: %w", err)
	}
	return data, nil
}

// Deserialize decodes JSON produced by Serialize.
//
// A missing or null collection, a wrong element type, duplicate record IDs
// or trailing bytes yield domain.ErrCorruptSnapshot.
func Deserialize(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, domain.ErrCorruptSnapshot.WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, domain.ErrCorruptSnapshot.WithDetails("trailing data after document")
	}

	switch {
	case doc.Engagements == nil:
		return nil, domain.ErrCorruptSnapshot.WithDetails("missing engagements")
	case doc.Instructors == nil:
		return nil, domain.ErrCorruptSnapshot.WithDetails("missing instructors")
	case doc.Hosts == nil:
		return nil, domain.ErrCorruptSnapshot.WithDetails("missing hosts")
	}

	s := &Snapshot{
		Records:     make(map[uuid.UUID]domain.Engagement, len(*doc.Engagements)),
		Instructors: memory.SetOf(*doc.Instructors),
		Hosts:       memory.SetOf(*doc.Hosts),
	}
	for _, e := range *doc.Engagements {
		if e.ID == uuid.Nil {
			return nil, domain.ErrCorruptSnapshot.WithDetails("engagement without id")
		}
		if !e.Language.Valid() || !e.Status.Valid() {
			return nil, domain.ErrCorruptSnapshot.WithDetailsf("engagement %s missing language or status", e.ID)
		}
		if _, dup := s.Records[e.ID]; dup {
			return nil, domain.ErrCorruptSnapshot.WithDetailsf("duplicate engagement id %s", e.ID)
		}
		s.Records[e.ID] = e
	}
	return s, nil
}

// Compress compresses data with zstd at level (1..22).
func Compress(data []byte, level int) ([]byte, error) {
	enc, err := newEncoder(level)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	dec, err := newDecoder()
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return decompressWith(dec, data)
}

func newEncoder(level int) (*zstd.Encoder, error) {
	if level < MinCompressionLevel || level > MaxCompressionLevel {
		return nil, domain.ErrCompression.WithDetailsf("level %d out of range %d..%d",
			level, MinCompressionLevel, MaxCompressionLevel)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, domain.ErrCompression.WithCause(err)
	}
	return enc, nil
}

func newDecoder() (*zstd.Decoder, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, domain.ErrCompression.WithCause(err)
	}
	return dec, nil
}

func decompressWith(dec *zstd.Decoder, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, domain.ErrCompression.WithDetails("empty input")
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, domain.ErrCompression.WithCause(err)
	}
	return out, nil
}

// Codec encodes snapshots into upload-ready blobs and back.
//
// A Codec is safe for concurrent use.
type Codec struct {
	level  int
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	cipher adaptive.Cipher
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLevel sets the zstd compression level.
func WithLevel(level int) CodecOption {
	return func(c *Codec) {
		c.level = level
	}
}

// WithCipher seals compressed blobs with the given AEAD cipher.
func WithCipher(cipher adaptive.Cipher) CodecOption {
	return func(c *Codec) {
		c.cipher = cipher
	}
}

// NewCodec creates a codec. The default level is DefaultCompressionLevel.
func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(c)
	}

	enc, err := newEncoder(c.level)
	if err != nil {
		return nil, err
	}
	dec, err := newDecoder()
	if err != nil {
		enc.Close()
		return nil, err
	}
	c.enc = enc
	c.dec = dec
	return c, nil
}

// Close releases encoder and decoder resources.
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Level returns the compression level.
func (c *Codec) Level() int {
	return c.level
}

// Encrypted reports whether blobs produced by this codec are sealed.
func (c *Codec) Encrypted() bool {
	return c.cipher != nil
}

// Encoded is an upload-ready blob and what it took to produce it.
type Encoded struct {
	Data      []byte
	RawSize   int
	Encrypted bool

	// Elapsed covers serialization, compression and sealing.
	Elapsed time.Duration
}

// Encode serializes, compresses and optionally seals s.
func (c *Codec) Encode(s *Snapshot) (*Encoded, error) {
	start := time.Now()

	raw, err := Serialize(s)
	if err != nil {
		return nil, err
	}
	out := c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/4))

	if c.cipher != nil {
		out, err = seal(c.cipher, out)
		if err != nil {
			return nil, err
		}
	}

	return &Encoded{
		Data:      out,
		RawSize:   len(raw),
		Encrypted: c.cipher != nil,
		Elapsed:   time.Since(start),
	}, nil
}

// Decode reverses Encode. Sealed blobs are detected by their header and
// require the codec to hold the matching cipher.
func (c *Codec) Decode(data []byte) (*Snapshot, error) {
	if isSealed(data) {
		if c.cipher == nil {
			return nil, domain.ErrCorruptSnapshot.WithDetails("snapshot is encrypted and no key is configured")
		}
		plain, err := open(c.cipher, data)
		if err != nil {
			return nil, err
		}
		data = plain
	}

	raw, err := decompressWith(c.dec, data)
	if err != nil {
		return nil, err
	}
	return Deserialize(raw)
}
