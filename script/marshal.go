package script

import (
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"

	zkscript "github.com/zkscript/zkscript"
)

// serialized envelope for a compiled program. The version stamp gates
// deserialization: programs are byte-exact artifacts, so a program written by
// a different major version is refused rather than reinterpreted.
type programEnvelope struct {
	Version string `cbor:"1,keyasint"`
	Raw     []byte `cbor:"2,keyasint"`
}

// WriteTo serializes the script with a library version stamp.
func (s Script) WriteTo(w io.Writer) (int64, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return 0, err
	}
	data, err := enc.Marshal(programEnvelope{
		Version: zkscript.Version.String(),
		Raw:     s.raw,
	})
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFrom deserializes a script written by WriteTo. It returns an error when
// the artifact was produced by an incompatible library version.
func (s *Script) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), err
	}
	var env programEnvelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return int64(len(data)), err
	}
	v, err := semver.Parse(env.Version)
	if err != nil {
		return int64(len(data)), fmt.Errorf("invalid version stamp %q: %w", env.Version, err)
	}
	if v.Major != zkscript.Version.Major {
		return int64(len(data)), fmt.Errorf("program was compiled with zkscript v%s, current version is v%s", v, zkscript.Version)
	}
	s.raw = env.Raw
	return int64(len(data)), nil
}
