// Package align reconciles time-stamped transcript segments with
// independently diarized speaker turns, producing the coarse combined view
// used for transcript display and the fine aligned view used for playback
// highlighting.
package align
