/*
Package media provides the template helpers used to put media on a page:
responsive <img> markup for attachments, attachment/URL/path resolution, and
inline SVG with caller-supplied attributes.

The helpers are thin. Attachment records come from an AttachmentSource, files
are read through an afero.Fs rooted at the upload directory, and both the
attribute set and the final markup pass through the hooks registered on
Filters. Everything is reachable from Go through Helpers and from templates
through Helpers.FuncMap.
*/
package media
