// Package mediatypes classifies file paths by extension into the media
// types the catalog understands: indexable images and ZIP archives.
package mediatypes
