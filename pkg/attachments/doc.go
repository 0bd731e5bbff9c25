/*
Package attachments is the SQLite-backed record of media attachments that the
template helpers resolve against.

An attachment is a numeric ID pointing at a file below the upload directory,
together with its mime type, pixel dimensions, alt text and any number of named
size variants (for example "thumbnail" or "large") that were produced ahead of
time. The package never touches the files themselves; it only answers "which
file is attachment 42" and "which attachment owns this file".
*/
package attachments
