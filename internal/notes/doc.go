// Package notes renders session notes from speaker-attributed transcript
// segments.
package notes
