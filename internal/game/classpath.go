package game

import (
	"os"
	"strings"
)

// BuildClasspath joins the non-native library files and the client jar into
// a classpath string using the host's path-list separator. Library order is
// preserved; the client jar goes last so loader shims shadow game classes.
func BuildClasspath(files []LibraryFile, clientJar string) string {
	var entries []string
	for _, f := range files {
		if !f.Native {
			entries = append(entries, f.Path)
		}
	}
	entries = append(entries, clientJar)
	return strings.Join(entries, string(os.PathListSeparator))
}
