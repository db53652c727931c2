// Package extract implements the source content extraction collaborator:
// inline text, web pages, PDFs and YouTube videos all reduce to plain text
// for the analysis stage.
package extract
