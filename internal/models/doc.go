// Package models defines domain entities and persistence interfaces for personify.
//
// The package contains two categories of types:
//
// 1. Value types passed between the core components:
//   - [Track] : a (name, artist) pair supplied by the music service
//   - [CritiqueResult] : generator output, either model text or the fallback sentinel
//
// 2. Persistent entities used by the surrounding web service:
//   - [Session] : OAuth state, fetched tracks and last critique for one browser session
//
// Persistent entities implement the [Model] interface providing ID, timestamps, and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
