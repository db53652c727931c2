// Package audio implements the episode assembly collaborator, joining
// synthesized segments into one stream with ffmpeg.
package audio
