// Package elevenlabs converts text to speech through the ElevenLabs REST API.
package elevenlabs
