package compiler

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format: serialized compiled programs (.bfc artifacts)
// ---------------------------------------------------------------------------

// ArtifactVersion is the current artifact format version. Increment when
// making incompatible changes to the format.
const ArtifactVersion byte = 1

// ArtifactMagic identifies .bfc artifact files: "BFKC".
var ArtifactMagic = []byte{'B', 'F', 'K', 'C'}

// cborEncMode holds CBOR encoding options with canonical mode for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// artifact is the CBOR payload of a serialized program. The loop map is
// deliberately not stored: it is rebuilt on load, so a corrupted file can
// never smuggle in a broken jump table.
type artifact struct {
	SourceHash   [32]byte
	Instructions []Instruction
	Stats        Stats
}

// Serialize encodes the program as a .bfc artifact: four magic bytes, one
// format version byte, then the canonical CBOR payload.
func (p *Program) Serialize() ([]byte, error) {
	payload, err := cborEncMode.Marshal(artifact{
		SourceHash:   p.SourceHash,
		Instructions: p.Instructions,
		Stats:        p.Stats,
	})
	if err != nil {
		return nil, fmt.Errorf("compiler: encode artifact: %w", err)
	}

	buf := make([]byte, 0, len(ArtifactMagic)+1+len(payload))
	buf = append(buf, ArtifactMagic...)
	buf = append(buf, ArtifactVersion)
	buf = append(buf, payload...)
	return buf, nil
}

// Deserialize decodes a .bfc artifact produced by Serialize. The loop map
// is rebuilt from the decoded instructions and the sequence is re-checked
// for no-effect instructions, so a well-typed but tampered artifact cannot
// yield a defective program.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < len(ArtifactMagic)+1 {
		return nil, fmt.Errorf("compiler: artifact too short: need at least %d bytes, got %d", len(ArtifactMagic)+1, len(data))
	}
	if !bytes.Equal(data[:4], ArtifactMagic) {
		return nil, fmt.Errorf("compiler: invalid artifact magic: expected %q, got %q", ArtifactMagic, data[:4])
	}
	if v := data[4]; v != ArtifactVersion {
		return nil, fmt.Errorf("compiler: unsupported artifact version %d (current %d)", v, ArtifactVersion)
	}

	var a artifact
	if err := cbor.Unmarshal(data[5:], &a); err != nil {
		return nil, fmt.Errorf("compiler: decode artifact: %w", err)
	}

	for pos, in := range a.Instructions {
		if isNoEffect(in) {
			return nil, fmt.Errorf("compiler: artifact holds no-effect instruction %s at position %d", in, pos)
		}
	}

	loopMap, err := matchBrackets(a.Instructions)
	if err != nil {
		return nil, err
	}

	return &Program{
		Instructions: a.Instructions,
		LoopMap:      loopMap,
		Stats:        a.Stats,
		SourceHash:   a.SourceHash,
	}, nil
}
