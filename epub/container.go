package epub

import (
	"encoding/xml"
	"errors"
	"io/fs"
)

// Container-related errors.
var (
	ErrNoContainer      = errors.New("epub: missing META-INF/container.xml")
	ErrInvalidContainer = errors.New("epub: invalid container.xml")
	ErrNoRootfile       = errors.New("epub: no rootfile found in container.xml")
)

const containerPath = "META-INF/container.xml"

// containerXML represents the structure of META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	Version   string   `xml:"version,attr"`
	Rootfiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// parseContainer reads META-INF/container.xml and returns the path to the
// OPF package document.
func parseContainer(fsys fs.FS) (string, error) {
	data, err := fs.ReadFile(fsys, containerPath)
	if err != nil {
		return "", ErrNoContainer
	}

	var container containerXML
	if err := xml.Unmarshal(data, &container); err != nil {
		return "", ErrInvalidContainer
	}

	for _, rf := range container.Rootfiles {
		if (rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "") && rf.FullPath != "" {
			return rf.FullPath, nil
		}
	}

	// No media-type match; fall back to the first rootfile
	if len(container.Rootfiles) > 0 && container.Rootfiles[0].FullPath != "" {
		return container.Rootfiles[0].FullPath, nil
	}

	return "", ErrNoRootfile
}
