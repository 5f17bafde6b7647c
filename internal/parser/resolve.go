package parser

import (
	"path/filepath"
	"regexp"
	"strings"
)

// IndexName is the conventional module entry file name.
const IndexName = "index"

var versionSegment = regexp.MustCompile(`/(v\d+)/`)

// Resolution is the resource name and path prefix derived from a file.
type Resolution struct {
	ResourceName string
	Prefix       string
}

// Path joins the prefix and a route literal without normalizing slashes.
func (r Resolution) Path(route string) string {
	return r.Prefix + route
}

// Resolve derives the resource name and endpoint prefix for a file. name is
// the base name without extension; filePath is the full path.
func Resolve(name, filePath string) Resolution {
	if name == IndexName {
		return Resolution{ResourceName: name, Prefix: "/" + IndexName}
	}
	if m := versionSegment.FindStringSubmatch("/" + filepath.ToSlash(filePath)); m != nil {
		return Resolution{ResourceName: name, Prefix: "/" + m[1] + "/" + name}
	}
	return Resolution{ResourceName: name, Prefix: "/" + name}
}

// ResolveFile is Resolve with the base name taken from filePath.
func ResolveFile(filePath string) Resolution {
	return Resolve(BaseName(filePath), filePath)
}

// BaseName returns the file name without directory or final extension.
func BaseName(filePath string) string {
	base := filepath.Base(filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
