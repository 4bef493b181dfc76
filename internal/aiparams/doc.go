// Package aiparams recovers AI image-generation parameters (prompt,
// negative prompt, sampler settings, model identity) from the free-text
// blocks that generation tools embed in image metadata. Parsing is
// best-effort: unrecognized text yields an empty result, never an error.
package aiparams
