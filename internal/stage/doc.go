// Package stage defines the ordered pipeline stages, their ordinals, and the
// artifact descriptors each stage produces.
//
// The order initialized < image_created < video_created < speech_created <
// video_edited < subtitles_added is fixed for the whole process. Content kinds
// build a Table naming the stages they run and where each one's outputs live;
// the checkpoint package uses the table to answer skip requests without
// re-running work.
package stage
