// Package critique turns a list of top tracks into a short, mean critique of the listener's taste.
//
// # Generator
//
// [Generator] builds one prompt from the tracks, asks a [Completer] for a completion and checks it:
// the trimmed text must be non-empty and at least [DefaultMinWords] words long. Attempts run strictly
// one after another; a rejected completion or a completer error is logged, then the generator waits the
// retry delay plus one to two seconds of jitter before trying again. When every attempt fails the result
// is [FallbackMessage] with IsFallback set, which is still a renderable critique.
//
// An empty track list never reaches the completer; it yields [NoTracksMessage].
//
// # Completers
//
//   - [OpenRouterCompleter] : OpenAI-compatible chat completions against OpenRouter
//   - [GeminiCompleter] : Google Gemini via the genai SDK
//
// Completers are constructed once and shared read-only across requests.
package critique
