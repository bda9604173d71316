package fetch

import (
	"net/url"
	"path/filepath"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// ParseLocator turns a tree source or asset identifier into a URL. Strings
// without a scheme, and Windows drive paths, are treated as file paths and
// made absolute.
func ParseLocator(locator string) (*url.URL, error) {
	if locator == "" {
		return nil, errors.New("empty locator").WithType(ErrTypeUnsupportedScheme)
	}

	if filepath.VolumeName(locator) == "" {
		if u, err := url.Parse(locator); err == nil && len(u.Scheme) > 1 {
			return u, nil
		}
	}

	abs, err := filepath.Abs(locator)
	if err != nil {
		return nil, errors.New("resolving file locator failed").
			WithType(ErrTypeFetchFailed).
			WithTag("locator", locator).
			Wrap(err)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// Resolve interprets locator relative to base. Absolute URLs are returned
// as is; anything else is resolved against base, or parsed as a file path
// when base is nil.
func Resolve(base *url.URL, locator string) (*url.URL, error) {
	if base == nil {
		return ParseLocator(locator)
	}
	ref, err := url.Parse(locator)
	if err != nil {
		return nil, errors.New("invalid locator").
			WithType(ErrTypeUnsupportedScheme).
			WithTag("locator", locator).
			Wrap(err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	if base.Scheme == "file" && filepath.IsAbs(locator) {
		return &url.URL{Scheme: "file", Path: filepath.ToSlash(locator)}, nil
	}
	return base.ResolveReference(ref), nil
}
