// Package meshbrowse provides embedded runtime resources (the demo tree)
// and an overlay filesystem that checks local disk first, falling back to embedded.
package meshbrowse

import (
	"embed"
	"io/fs"
	"os"
	"path"
)

// DemoSource is the locator that selects the embedded demo tree.
const DemoSource = "demo"

// DemoTreeFile is the name of the demo tree description inside Demo.
const DemoTreeFile = "tree.json"

//go:embed demo/*.json
var rawDemo embed.FS

// Demo is the embedded demo filesystem with the "demo/" prefix stripped.
var Demo = mustSub(rawDemo, "demo")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// DemoTree returns the demo tree description. A tree.json in localDir
// takes precedence over the embedded one.
func DemoTree(localDir string) ([]byte, error) {
	return fs.ReadFile(OverlayFS(localDir, Demo), DemoTreeFile)
}

// OverlayFS returns a filesystem that checks localDir on disk first,
// falling back to the embedded filesystem for files not found locally.
func OverlayFS(localDir string, embedded fs.FS) fs.FS {
	return overlayFS{localDir: localDir, embedded: embedded}
}

type overlayFS struct {
	localDir string
	embedded fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if o.localDir != "" {
		f, err := os.Open(path.Join(o.localDir, name))
		if err == nil {
			return f, nil
		}
	}
	return o.embedded.Open(name)
}
