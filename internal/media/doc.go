// Package media shells out to ffmpeg and ffprobe for audio normalization
// and container inspection.
package media
