package element

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
)

// parseManifestClassPath extracts the Class-Path attribute from a
// META-INF/MANIFEST.MF byte stream, per the manifest format's line-folding
// rule: a continuation line starts with exactly one leading space and its
// content (minus that space) is appended to the previous line. Returns the
// space-delimited tokens, unresolved.
func parseManifestClassPath(raw []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, " ") && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, line := range lines {
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Class-Path") {
			value = strings.TrimSpace(value)
			if value == "" {
				return nil, nil
			}
			return strings.Fields(value), nil
		}
	}
	return nil, nil
}

// resolveManifestClassPathEntry resolves one Class-Path token against the
// directory containing the archive that declared it, per spec.md §4.5.
func resolveManifestClassPathEntry(archiveDir, token string) string {
	if filepath.IsAbs(token) {
		return filepath.Clean(token)
	}
	return filepath.Clean(filepath.Join(archiveDir, filepath.FromSlash(token)))
}
