// Package testsupport provides fixtures shared by package tests: temp-dir
// configurations, idea documents, entities, and an opened catalog.
package testsupport
