// Package natives unpacks native library archives into a version's natives
// directory.
//
// Several archives of a version share one directory, so extractions through an
// Installer are serialised. Extraction overwrites existing files and is safe
// to repeat.
package natives
