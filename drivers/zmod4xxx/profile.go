package zmod4xxx

import (
	"fmt"

	"gassense-go/errcode"
)

// RegisterBlock is one register-group programming step. Data is shared with
// the static tables and must not be modified.
type RegisterBlock struct {
	Addr byte
	Len  int
	Data []byte
}

// ResultRegion describes where a profile's result bytes are read from.
type ResultRegion struct {
	Addr byte
	Len  int
}

// Profile is a named register program: heater (H), delay (D), measurement (M)
// and sequencer (S) blocks, the command byte that starts it and the region
// holding its result.
type Profile struct {
	Name  string
	Start byte
	H     RegisterBlock
	D     RegisterBlock
	M     RegisterBlock
	S     RegisterBlock
	R     ResultRegion
	// ProdDataLen is the trim data length expected with this profile (0 if none).
	ProdDataLen int
}

// ProfileKind indexes the two profiles every model ships.
type ProfileKind uint8

const (
	ProfileInit ProfileKind = iota
	ProfileMeasurement
)

func (k ProfileKind) String() string {
	switch k {
	case ProfileInit:
		return "init"
	case ProfileMeasurement:
		return "measurement"
	default:
		return "unknown"
	}
}

// Profiles is the immutable profile table of a model.
type Profiles [2]Profile

// Get returns the profile for k.
func (p *Profiles) Get(k ProfileKind) *Profile { return &p[k] }

// Blocks returns the four programming blocks in write order.
func (p *Profile) Blocks() [4]RegisterBlock { return [4]RegisterBlock{p.H, p.D, p.M, p.S} }

// Validate reports a table defect: a block whose declared length differs from
// its data, an odd heater block, or an empty or odd result region.
func (p *Profile) Validate() error {
	names := [4]string{"h", "d", "m", "s"}
	for i, b := range p.Blocks() {
		if b.Len <= 0 || b.Len != len(b.Data) {
			return &errcode.E{C: errcode.InvalidProfile, Op: p.Name,
				Msg: fmt.Sprintf("block %s declares %d bytes, table has %d", names[i], b.Len, len(b.Data))}
		}
	}
	if p.H.Len%2 != 0 {
		return &errcode.E{C: errcode.InvalidProfile, Op: p.Name, Msg: "heater block must hold 16-bit entries"}
	}
	if p.R.Len <= 0 || p.R.Len%2 != 0 {
		return &errcode.E{C: errcode.InvalidProfile, Op: p.Name, Msg: fmt.Sprintf("result region length %d", p.R.Len)}
	}
	if p.ProdDataLen < 0 {
		return &errcode.E{C: errcode.InvalidProfile, Op: p.Name, Msg: "negative trim data length"}
	}
	return nil
}
