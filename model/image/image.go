// Package image implements spec §4.1 phase 7, "emit image": the
// compiled model's per-subsystem output (the @postgres schema today;
// @access policies, and eventually @deno/@wasm interceptor bundles)
// is serialized into one portable binary blob that Decode reads back
// without re-running the compiler. The GraphQL planner (package gqlplan)
// and cmd/exo do not load images; they work from a compiled model.Model.
//
// Wire format (spec §4.1 item 7, "a serialised record with header
// {magic, version, plugin-id, blob-offsets[]} followed by per-plugin
// opaque blobs"):
//
//	magic      [4]byte  "EXOI"
//	version    uint32   big-endian
//	count      uint32   big-endian, number of plugin blobs
//	repeated count times:
//	  idLen    uint16   big-endian
//	  id       []byte   plugin id, e.g. "postgres", "access"
//	  blobLen  uint32   big-endian
//	  blob     []byte   msgpack-encoded plugin payload
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Magic identifies an exocore compiled image file.
var Magic = [4]byte{'E', 'X', 'O', 'I'}

// Version is the current image format version. A reader refuses to
// load an image whose version it doesn't recognize rather than guess
// at a layout it was never tested against.
const Version uint32 = 1

// Plugin is one subsystem's opaque contribution to the image: a stable
// id and a msgpack-encodable payload specific to that subsystem
// (*pgschema's sqlmodel.Schema, the access package's compiled
// Policies, and so on).
type Plugin struct {
	ID      string
	Payload any
}

// Blob is one decoded plugin section: the id plus its still-encoded
// msgpack bytes, which the caller decodes into the concrete type it
// expects for that id (Decode can't know every caller's plugin types
// up front).
type Blob struct {
	ID   string
	Data []byte
}

// Encode serializes plugins into the wire format described above,
// writing to w in plugin order (stable, since re-encoding the same
// compiled model twice must produce byte-identical output per spec
// §9's determinism property).
func Encode(w io.Writer, plugins []Plugin) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(plugins))); err != nil {
		return err
	}
	for _, p := range plugins {
		blob, err := msgpack.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("image: encoding plugin %q: %w", p.ID, err)
		}
		if len(p.ID) > 0xFFFF {
			return fmt.Errorf("image: plugin id %q too long", p.ID)
		}
		if err := binary.Write(w, binary.BigEndian, uint16(len(p.ID))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(blob))); err != nil {
			return err
		}
		if _, err := w.Write(blob); err != nil {
			return err
		}
	}
	return nil
}

// EncodeBytes is a convenience wrapper returning the encoded image as
// a byte slice.
func EncodeBytes(plugins []Plugin) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, plugins); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses the wire format back into its per-plugin blobs without
// decoding each blob's msgpack payload; callers look up the blob for
// the plugin id they care about and call DecodeBlob on it.
func Decode(r io.Reader) ([]Blob, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("image: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("image: bad magic bytes %q, not an exocore image", magic)
	}

	var version, count uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("image: reading version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("image: unsupported version %d, expected %d", version, Version)
	}
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, fmt.Errorf("image: reading plugin count: %w", err)
	}

	blobs := make([]Blob, 0, count)
	for i := uint32(0); i < count; i++ {
		var idLen uint16
		if err := binary.Read(r, binary.BigEndian, &idLen); err != nil {
			return nil, fmt.Errorf("image: reading plugin %d id length: %w", i, err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, fmt.Errorf("image: reading plugin %d id: %w", i, err)
		}

		var blobLen uint32
		if err := binary.Read(r, binary.BigEndian, &blobLen); err != nil {
			return nil, fmt.Errorf("image: reading plugin %d blob length: %w", i, err)
		}
		data := make([]byte, blobLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, fmt.Errorf("image: reading plugin %d blob: %w", i, err)
		}

		blobs = append(blobs, Blob{ID: string(idBytes), Data: data})
	}
	return blobs, nil
}

// DecodeBytes is a convenience wrapper over Decode for an in-memory image.
func DecodeBytes(data []byte) ([]Blob, error) {
	return Decode(bytes.NewReader(data))
}

// Find returns the blob with the given plugin id, or ok=false if the
// image carries no such plugin section.
func Find(blobs []Blob, id string) (Blob, bool) {
	for _, b := range blobs {
		if b.ID == id {
			return b, true
		}
	}
	return Blob{}, false
}

// DecodeBlob unmarshals a Blob's msgpack payload into out (a pointer),
// the counterpart to the Payload a Plugin was encoded with.
func DecodeBlob(b Blob, out any) error {
	return msgpack.Unmarshal(b.Data, out)
}
