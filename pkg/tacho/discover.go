package tacho

import (
	"fmt"

	"github.com/gregLibert/tachograph-card/pkg/iso7816"
)

// DiscoverApplications reads EF.DIR from the master file.
// First generation cards have no EF.DIR and yield an empty directory.
// Selecting the MF resets the card's current DF, so run this before a Session.
func DiscoverApplications(client *iso7816.Client, cls iso7816.Class) (*iso7816.Directory, iso7816.Trace, error) {
	var all iso7816.Trace

	trace, err := client.Send(iso7816.SelectMF(cls))
	all = append(all, trace...)
	if err != nil {
		return nil, all, fmt.Errorf("select MF: %w", err)
	}
	if err := trace.Check(); err != nil {
		return nil, all, fmt.Errorf("select MF: %w", err)
	}

	cmd, err := iso7816.SelectEFUnderDF(cls, iso7816.DirectoryFileID)
	if err != nil {
		return nil, all, err
	}
	trace, err = client.Send(cmd)
	all = append(all, trace...)
	if err != nil {
		return nil, all, fmt.Errorf("select EF.DIR: %w", err)
	}
	if last := trace.Last(); last != nil && last.Response.Status == iso7816.SW_ERR_FILE_NOT_FOUND {
		return &iso7816.Directory{}, all, nil
	}
	if err := trace.Check(); err != nil {
		return nil, all, fmt.Errorf("select EF.DIR: %w", err)
	}

	// Le 00 asks for up to 256 bytes; a shorter file answers 6282 or 6CXX.
	cmd, err = iso7816.ReadBinary(cls, 0, 0x00)
	if err != nil {
		return nil, all, err
	}
	trace, err = client.Send(cmd)
	all = append(all, trace...)
	if err != nil {
		return nil, all, fmt.Errorf("read EF.DIR: %w", err)
	}
	if last := trace.Last(); last == nil || last.Response.Status != iso7816.SW_WARN_EOF_REACHED {
		if err := trace.Check(); err != nil {
			return nil, all, fmt.Errorf("read EF.DIR: %w", err)
		}
	}

	dir, err := iso7816.ParseDirectory(trace.Data())
	if err != nil {
		return nil, all, fmt.Errorf("parse EF.DIR: %w", err)
	}
	return dir, all, nil
}
