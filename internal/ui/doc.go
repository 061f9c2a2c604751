// Package ui styles terminal output and runs the progress view shown while a roast is produced.
//
// The progress [Model] implements bubbletea/Elm's standard Init/Update/View pattern. A [Job] runs in its own goroutine
// and reports stages ("fetching top tracks", "writing critique", "rendering image") through a channel, so the
// spinner keeps moving while the completion provider retries.
//
// [RenderCritique] turns the critique's ** and * markers into bold and italic terminal styles.
//
// Keyboard: q or ctrl+c cancels the job's context, with contextual help displayed via charmbracelet/bubbles/help.
package ui
