package epub

import (
	"encoding/xml"
	"errors"
	"io/fs"
	"strings"
)

// ErrDRMProtected is returned for books whose content is encrypted.
var ErrDRMProtected = errors.New("epub: DRM-protected content cannot be processed")

// encryptionXML represents the structure of META-INF/encryption.xml.
type encryptionXML struct {
	XMLName       xml.Name `xml:"encryption"`
	EncryptedData []struct {
		Method struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
		Reference struct {
			URI string `xml:"URI,attr"`
		} `xml:"CipherData>CipherReference"`
	} `xml:"EncryptedData"`
}

// checkForDRM returns ErrDRMProtected when the archive carries an Adobe
// rights file or encrypts any content document.
func checkForDRM(fsys fs.FS) error {
	if _, err := fs.Stat(fsys, "META-INF/rights.xml"); err == nil {
		return ErrDRMProtected
	}

	data, err := fs.ReadFile(fsys, "META-INF/encryption.xml")
	if err != nil {
		return nil
	}
	encrypted, err := hasEncryptedContent(data)
	if err != nil || encrypted {
		// An unreadable encryption manifest is treated as DRM
		return ErrDRMProtected
	}
	return nil
}

// hasEncryptedContent reports whether encryption.xml lists any content
// document. Font obfuscation is not DRM.
func hasEncryptedContent(data []byte) (bool, error) {
	var enc encryptionXML
	if err := xml.Unmarshal(data, &enc); err != nil {
		return false, err
	}

	for _, ed := range enc.EncryptedData {
		if isFontObfuscation(ed.Method.Algorithm) {
			continue
		}
		if isContentFile(ed.Reference.URI) {
			return true, nil
		}
	}
	return false, nil
}

// isFontObfuscation returns true for the Adobe and IDPF font obfuscation
// algorithms.
func isFontObfuscation(algorithm string) bool {
	if !strings.Contains(algorithm, "obfuscation") {
		return false
	}
	return strings.Contains(algorithm, "adobe.com") || strings.Contains(algorithm, "idpf.org")
}

// isContentFile returns true if the URI refers to a content document or
// stylesheet.
func isContentFile(uri string) bool {
	uri = strings.ToLower(uri)
	for _, ext := range []string{".xhtml", ".html", ".htm", ".xml", ".css"} {
		if strings.HasSuffix(uri, ext) {
			return true
		}
	}
	return false
}
