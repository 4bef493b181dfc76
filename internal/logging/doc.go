// Package logging provides leveled log output for the photo catalog.
// The level is configured once from the DEBUG and LOG_LEVEL environment
// variables and defaults to info.
package logging
