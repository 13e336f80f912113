// Package runware submits imageInference tasks to Runware and downloads the
// resulting image.
package runware
