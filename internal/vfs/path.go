package vfs

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SplitPath breaks a slash-delimited path into segments. Leading, trailing,
// and repeated slashes are ignored, so "", "/" and "//" all name the root.
// "." and ".." are rejected: Drive has no notion of a current or parent
// directory. Segments are NFC-normalized so that names typed on systems
// that decompose accents (macOS) match names created elsewhere.
func SplitPath(p string) ([]string, error) {
	var segs []string

	for _, s := range strings.Split(p, "/") {
		switch s {
		case "":
			continue
		case ".", "..":
			return nil, fmt.Errorf("vfs: path %q: relative segment %q: %w", p, s, ErrInvalidArgument)
		}

		segs = append(segs, norm.NFC.String(s))
	}

	return segs, nil
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segs []string) string {
	return "/" + strings.Join(segs, "/")
}

// splitLeaf splits a path into its parent segments and leaf name. A path
// without segments has no leaf and is rejected.
func splitLeaf(p string) ([]string, string, error) {
	segs, err := SplitPath(p)
	if err != nil {
		return nil, "", err
	}

	if len(segs) == 0 {
		return nil, "", fmt.Errorf("vfs: path %q names the root folder: %w", p, ErrInvalidArgument)
	}

	return segs[:len(segs)-1], segs[len(segs)-1], nil
}

// validName checks a single name used for a rename.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return fmt.Errorf("vfs: invalid name %q: %w", name, ErrInvalidArgument)
	}

	return nil
}
