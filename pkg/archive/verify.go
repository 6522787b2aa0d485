package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sgaunet/gdsync/pkg/constants"
)

// Verified is an archive whose every member has been checked against its root.
// It can only be produced by Verify and is the only input Extract accepts.
type Verified struct {
	root    string
	entries []entry
}

// entry is a fully buffered archive member.
type entry struct {
	hdr  *tar.Header
	name string // normalized member name, no trailing slash
	data []byte
}

// Root returns the verified root entry name.
func (v *Verified) Root() string {
	return v.root
}

// Members returns the member names in archive order.
func (v *Verified) Members() []string {
	names := make([]string, 0, len(v.entries))
	for _, e := range v.entries {
		names = append(names, e.name)
	}
	return names
}

// ContentSize returns the total uncompressed size of regular file members.
func (v *Verified) ContentSize() int64 {
	var total int64
	for _, e := range v.entries {
		total += int64(len(e.data))
	}
	return total
}

// Verify parses the whole archive and checks it is rooted at expectedRoot.
//
// It fails with ErrCorruptArchive when the data is not a readable gzip tar, or
// when expectedRoot is missing or is not a directory entry. It fails with
// ErrIllegalMember when any member is not expectedRoot itself or a path beneath
// "expectedRoot/", when a member name is not in canonical form (e.g. contains
// ".."), when a member sits below a symbolic link member, or when a link
// resolves outside the root once the archive's own links are followed.
func Verify(data []byte, expectedRoot string) (*Verified, error) {
	if err := validateRoot(expectedRoot); err != nil {
		return nil, err
	}
	entries, err := readEntries(data)
	if err != nil {
		return nil, err
	}

	if err := checkRootEntry(entries, expectedRoot); err != nil {
		return nil, err
	}
	links := symlinkMembers(entries)
	for _, e := range entries {
		if err := checkMember(e, expectedRoot, links); err != nil {
			return nil, err
		}
	}

	return &Verified{root: expectedRoot, entries: entries}, nil
}

// readEntries buffers every supported member of a gzip tar stream.
func readEntries(data []byte) ([]entry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archive is empty", ErrCorruptArchive)
	}
	// Names what was downloaded instead, e.g. an HTML error page.
	if mtype := mimetype.Detect(data); !mtype.Is(constants.GzipMimeType) {
		return nil, fmt.Errorf("%w: expected gzip data, got %s", ErrCorruptArchive, mtype.String())
	}

	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid gzip format: %w", ErrCorruptArchive, err)
	}
	defer func() { _ = gzr.Close() }()

	var entries []entry
	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read tar header: %w", ErrCorruptArchive, err)
		}

		// PAX global headers carry archive-wide metadata, not a member.
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}

		e := entry{hdr: hdr, name: strings.TrimRight(hdr.Name, "/")}
		if hdr.Typeflag == tar.TypeReg {
			if e.data, err = io.ReadAll(tr); err != nil {
				return nil, fmt.Errorf("%w: failed to read %s: %w", ErrCorruptArchive, hdr.Name, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// checkRootEntry ensures the root is present and is a directory.
func checkRootEntry(entries []entry, root string) error {
	for _, e := range entries {
		if e.name != root {
			continue
		}
		if e.hdr.Typeflag != tar.TypeDir {
			return fmt.Errorf("%w: project %s is not a directory in the archive", ErrCorruptArchive, root)
		}
		return nil
	}
	return fmt.Errorf("%w: project %s was not found in the archive", ErrCorruptArchive, root)
}

// checkMember applies the path traversal guard to a single member.
func checkMember(e entry, root string, links map[string]string) error {
	if !withinRoot(e.hdr.Name, e.name, root) {
		return fmt.Errorf("%w: %s", ErrIllegalMember, e.hdr.Name)
	}
	// Extraction would write through the link.
	if belowLink(e.name, links) {
		return fmt.Errorf("%w: %s is below a symbolic link", ErrIllegalMember, e.hdr.Name)
	}

	switch e.hdr.Typeflag {
	case tar.TypeSymlink:
		target := e.hdr.Linkname
		if path.IsAbs(target) {
			return fmt.Errorf("%w: %s links outside the project (%s)", ErrIllegalMember, e.hdr.Name, target)
		}
		// Not cleaned first: "s/.." must go through s when s is itself a link.
		resolved, ok := resolveLinks(path.Dir(e.name)+"/"+target, links)
		if !ok || !underRoot(resolved, root) {
			return fmt.Errorf("%w: %s links outside the project (%s)", ErrIllegalMember, e.hdr.Name, target)
		}
	case tar.TypeLink:
		target := e.hdr.Linkname
		trimmed := strings.TrimRight(target, "/")
		if !withinRoot(target, trimmed, root) || belowLink(trimmed, links) {
			return fmt.Errorf("%w: %s links outside the project (%s)", ErrIllegalMember, e.hdr.Name, target)
		}
	}
	return nil
}

// symlinkMembers maps every symbolic link member name to its target.
func symlinkMembers(entries []entry) map[string]string {
	links := make(map[string]string)
	for _, e := range entries {
		if e.hdr.Typeflag == tar.TypeSymlink {
			links[e.name] = e.hdr.Linkname
		}
	}
	return links
}

// belowLink reports whether any parent directory of name is a symbolic link member.
func belowLink(name string, links map[string]string) bool {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, ok := links[dir]; ok {
			return true
		}
	}
	return false
}

// maxLinkHops bounds link expansion, like ELOOP in the kernel.
const maxLinkHops = 40

// resolveLinks resolves a slash-separated path relative to the extraction
// directory the way the filesystem will once extracted: every element naming
// a symbolic link member is replaced by its target before ".." applies.
// It reports false when the path climbs above the extraction directory,
// meets an absolute target or needs more than maxLinkHops expansions.
func resolveLinks(p string, links map[string]string) (string, bool) {
	hops := 0
	return resolveWalk(p, links, &hops)
}

func resolveWalk(p string, links map[string]string, hops *int) (string, bool) {
	cur := ""
	for _, elem := range strings.Split(p, "/") {
		switch elem {
		case "", ".":
			continue
		case "..":
			if cur == "" {
				return "", false
			}
			cur = parentDir(cur)
			continue
		}

		next := joinRel(cur, elem)
		target, isLink := links[next]
		if !isLink {
			cur = next
			continue
		}
		*hops++
		if *hops > maxLinkHops || path.IsAbs(target) {
			return "", false
		}
		resolved, ok := resolveWalk(joinRel(cur, target), links, hops)
		if !ok {
			return "", false
		}
		cur = resolved
	}
	return cur, true
}

func joinRel(dir, elem string) string {
	if dir == "" {
		return elem
	}
	return dir + "/" + elem
}

func parentDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// withinRoot reports whether a raw member name is root or a canonical path beneath it.
func withinRoot(raw, name, root string) bool {
	if name != root && !strings.HasPrefix(name, root+"/") {
		return false
	}
	// "proj/../evil" passes the prefix test but escapes once cleaned.
	if path.Clean(name) != name || strings.Contains(raw, "\\") {
		return false
	}
	return true
}

// underRoot reports whether an already cleaned path is root or beneath it.
func underRoot(cleaned, root string) bool {
	return cleaned == root || strings.HasPrefix(cleaned, root+"/")
}

// validateRoot rejects root names that could not be a single directory entry.
func validateRoot(root string) error {
	if root == "" || root == "." || root == ".." || strings.ContainsAny(root, "/\\") {
		//nolint:err113 // dynamic error includes the offending name
		return fmt.Errorf("invalid archive root name %q", root)
	}
	return nil
}
