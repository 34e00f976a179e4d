//go:build integration
// +build integration

package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// stylesheet wraps body in a stylesheet whose entry template renders it.
func stylesheet(method, body string) string {
	return `<xsl:stylesheet version="1.0" xmlns:xsl="http://www.w3.org/1999/XSL/Transform">
  <xsl:output method="` + method + `"/>
  <xsl:template match="/">` + body + `</xsl:template>
</xsl:stylesheet>`
}

// createStylesheet writes content to dir/name and returns its path.
func createStylesheet(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
