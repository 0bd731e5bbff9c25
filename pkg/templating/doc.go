/*
Package templating loads page templates from a filesystem and renders them with
the media helpers available as template functions.

Full pages are files named *.tmpl.html; partials are *.part.html and can be
pulled into pages with the template action. Templates are parsed once and can be
reloaded with Refresh, so edits on disk go live without a restart.

Besides the media functions (image, imageWithClass, imageURL, attachmentID,
mediaPath, mediaURL, svg, attrs and flags) the engine provides a few small
helpers: list, dict, repeat, default, isSet, join, add, sub, div and mod.
*/
package templating
