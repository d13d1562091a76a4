// Package mdexport converts Markdown documents with YAML front matter
// into HTML, JPEG, PNG, PDF, or self-contained HTML renditions.
//
// The pipeline has three layers. A Document owns the Markdown source,
// its front-matter attributes, and the page template; it renders the
// full HTML page through a configurable goldmark transform chain
// (heading anchors, table of contents, task-list checkboxes, emoji,
// syntax highlighting) followed by moustache-style attribute
// interpolation. A Converter serves the rendered page from an
// ephemeral local HTTP server and drives a headless browser to
// rasterize it. A Runner sequences whole conversions: it resolves
// workspace context, computes destination paths from a user template,
// and fans out the requested output types concurrently over a single
// Converter.
//
// Basic usage:
//
//	doc := mdexport.NewDocument(mdexport.NewParser(mdexport.ParserOptions{}))
//	if err := doc.SetRawContent(source); err != nil { ... }
//
//	conv := mdexport.NewConverter(doc, workspaceRoot)
//	if err := conv.Initialize(ctx); err != nil { ... }
//	defer conv.Dispose()
//	err := conv.Start(ctx, mdexport.TypePDF, "out/readme.pdf")
package mdexport
