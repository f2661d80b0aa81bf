package iso7816

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gregLibert/tachograph-card/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// EF.DIR (ISO 7816-4 section 8.2.1.1):
// A transparent EF under the MF, file identifier 2F00, listing the
// applications present on the card as application templates (tag '61').
// Unused space in the file is padded with 00 or FF bytes.

// DirectoryFileID is the identifier of EF.DIR.
var DirectoryFileID = []byte{0x2F, 0x00}

// ApplicationTemplate (Tag '61') describes one application of the card.
type ApplicationTemplate struct {
	AID               []byte `tlv:"4F"`
	Label             []byte `tlv:"50"`
	Path              []byte `tlv:"51"`
	DiscretionaryData []byte `tlv:"73"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// Directory is the decoded content of EF.DIR.
type Directory struct {
	Applications []ApplicationTemplate `tlv:"61"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseDirectory decodes the content of EF.DIR.
func ParseDirectory(data []byte) (*Directory, error) {
	end := len(data)
	for end > 0 && (data[end-1] == 0x00 || data[end-1] == 0xFF) {
		end--
	}
	data = data[:end]
	if len(data) == 0 {
		return &Directory{}, nil
	}

	dir := &Directory{}
	if err := tlv.Unmarshal(data, dir); err != nil {
		return nil, fmt.Errorf("failed to map EF.DIR: %w", err)
	}
	return dir, nil
}

// Find returns the application with the given AID, if listed.
func (d *Directory) Find(aid []byte) *ApplicationTemplate {
	for i := range d.Applications {
		if bytes.Equal(d.Applications[i].AID, aid) {
			return &d.Applications[i]
		}
	}
	return nil
}

// Describe lists the applications found in the directory.
func (d *Directory) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EF.DIR APPLICATIONS ===")

	if len(d.Applications) == 0 {
		sb.WriteString("\n    - No application templates.")
	}

	for i, app := range d.Applications {
		sb.WriteString(fmt.Sprintf("\n    - App[%d].AID (4F): %X", i+1, app.AID))
		if len(app.Label) > 0 {
			sb.WriteString(fmt.Sprintf("\n    - App[%d].Label (50): %q", i+1, tlv.MakeSafeASCII(app.Label)))
		}
		if len(app.Path) > 0 {
			sb.WriteString(fmt.Sprintf("\n    - App[%d].Path (51): %X", i+1, app.Path))
		}
		for _, u := range app.Unknown {
			sb.WriteString(fmt.Sprintf("\n    - App[%d].Unknown Tag %s: %X", i+1, u.Tag, u.Value))
		}
	}

	return sb.String()
}
