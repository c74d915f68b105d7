// Package parser splits skill documents into a frontmatter block and an
// instruction body, and decodes the frontmatter into skill metadata.
//
// Frontmatter is YAML between "---" lines or TOML between "+++" lines at the
// very top of the document. Documents without frontmatter are treated as
// bare bodies with metadata derived from the file path.
package parser
