package convert

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/tsawler/quire/markup"
	"github.com/tsawler/quire/model"
)

// imageSourceAttrs are the attributes tried, in order, for an image source.
// Non-HTML vocabularies use a variety of names.
var imageSourceAttrs = []string{"src", "href", "xlink:href", "data-src", "file", "url", "path"}

// errImageTooLarge is reported when a local image exceeds MaxImageBytes.
var errImageTooLarge = errors.New("image exceeds size limit")

// imageLoadError carries the warning kind that describes a failed load.
type imageLoadError struct {
	kind WarningKind
	err  error
}

func (e *imageLoadError) Error() string { return e.err.Error() }
func (e *imageLoadError) Unwrap() error { return e.err }

func loadFailure(kind WarningKind, err error) error {
	return &imageLoadError{kind: kind, err: err}
}

// imageSource returns the first non-empty source attribute of n.
func imageSource(n *markup.Node) string {
	for _, key := range imageSourceAttrs {
		if v := strings.TrimSpace(n.Attr(key)); v != "" {
			return v
		}
	}
	return ""
}

// placeholderText is the text substituted for an image that cannot be
// embedded.
func placeholderText(n *markup.Node, src string) string {
	label := strings.TrimSpace(n.Attr("alt"))
	if label == "" {
		label = strings.TrimSpace(n.Attr("title"))
	}
	if label == "" {
		label = src
		if strings.HasPrefix(label, "data:") {
			label = "embedded image"
		}
	}
	return "[image: " + truncate(label, 80) + "]"
}

// loadImage resolves src to an image block. Remote sources are never
// fetched.
func (v *visitor) loadImage(n *markup.Node, src string) (*model.Image, error) {
	data, err := v.readImageSource(src)
	if err != nil {
		return nil, err
	}

	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, loadFailure(UnsupportedImageFormat, err)
		}
		return nil, loadFailure(ImageDecodeError, err)
	}
	format := model.ParseImageFormat(name)
	if format == model.ImageFormatUnknown {
		return nil, loadFailure(UnsupportedImageFormat, fmt.Errorf("format %q", name))
	}

	width, height := imageDimensions(n, cfg.Width, cfg.Height)
	return &model.Image{
		Data:    data,
		Format:  format,
		Width:   width,
		Height:  height,
		AltText: strings.TrimSpace(n.Attr("alt")),
	}, nil
}

func (v *visitor) readImageSource(src string) ([]byte, error) {
	if src == "" {
		return nil, loadFailure(MissingLocalResource, errors.New("no image source"))
	}
	lower := strings.ToLower(src)

	switch {
	case strings.HasPrefix(lower, "data:"):
		data, err := decodeDataURI(src)
		if err != nil {
			return nil, loadFailure(ImageDecodeError, err)
		}
		return data, nil
	case isRemote(lower):
		return nil, loadFailure(RemoteResource, errors.New("remote images are not fetched"))
	case strings.HasPrefix(lower, "file:"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, loadFailure(MissingLocalResource, err)
		}
		return v.readLocal(u.Path)
	}

	p := src
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return v.readLocal(p)
}

func isRemote(lower string) bool {
	for _, prefix := range []string{"http://", "https://", "//", "ftp://"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// readLocal reads a path from Resources when set, otherwise from the local
// filesystem relative to BaseDir.
func (v *visitor) readLocal(p string) ([]byte, error) {
	limit := v.opts.maxImageBytes()

	if v.opts.Resources != nil {
		name := path.Join(v.opts.BaseDir, p)
		if strings.HasPrefix(p, "/") {
			name = path.Clean(strings.TrimPrefix(p, "/"))
		}
		if !fs.ValidPath(name) {
			return nil, loadFailure(MissingLocalResource, fmt.Errorf("invalid path %q", p))
		}
		f, err := v.opts.Resources.Open(name)
		if err != nil {
			return nil, loadFailure(MissingLocalResource, err)
		}
		defer f.Close()
		return readLimited(f, limit)
	}

	full := filepath.FromSlash(p)
	if !filepath.IsAbs(full) && v.opts.BaseDir != "" {
		full = filepath.Join(v.opts.BaseDir, full)
	}
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = fmt.Errorf("%s is not a regular file", full)
		}
		return nil, loadFailure(MissingLocalResource, err)
	}
	if info.Size() > limit {
		return nil, loadFailure(ImageDecodeError, fmt.Errorf("%w: %d bytes", errImageTooLarge, info.Size()))
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, loadFailure(MissingLocalResource, err)
	}
	defer f.Close()
	return readLimited(f, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, loadFailure(ImageDecodeError, err)
	}
	if int64(len(data)) > limit {
		return nil, loadFailure(ImageDecodeError, errImageTooLarge)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>][;base64],<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		clean := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\n', '\r', '\t':
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("decoding base64 payload: %w", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	return []byte(data), nil
}

// imageDimensions applies width/height attributes, scaling the missing one
// to keep the intrinsic aspect ratio.
func imageDimensions(n *markup.Node, w, h int) (int, int) {
	aw, okW := parsePixels(n.Attr("width"))
	ah, okH := parsePixels(n.Attr("height"))
	switch {
	case okW && okH:
		return aw, ah
	case okW && w > 0:
		return aw, h * aw / w
	case okH && h > 0:
		return w * ah / h, ah
	}
	return w, h
}

func parsePixels(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
