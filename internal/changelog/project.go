// Package changelog implements the release document engine: RST
// scaffolding templates, the named-anchor insertion mechanism used to file
// pull request entries into documents, and parsing/rendering of per-package
// HISTORY.rst changelogs.
package changelog

// Project coordinates for link formatting and API access.
const (
	ProjectOwner = "galaxyproject"
	ProjectName  = "galaxy"
	ProjectURL   = "https://github.com/" + ProjectOwner + "/" + ProjectName
)
