// Package logs reads back the JSON run logs the workflow writes per content
// entity. Tail returns the last lines or the lines past an offset, Follow
// polls for appended lines, and Parse/Filter decode and select records for
// display by the CLI.
package logs
